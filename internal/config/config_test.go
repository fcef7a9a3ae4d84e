package config

import (
	"encoding/json"
	"path"
	"testing"
	"time"
)

func TestGetConfig(t *testing.T) {
	c, err := GetConfig(Configuration{BatchSize: 30}, path.Join("..", "..", "testdata", "test.json"))
	if err != nil {
		t.Fatalf("got error when reading config file: %v", err)
	}
	if c == nil {
		t.Fatal("got a nil config object")
	}
	if c.Format != "xlsx" {
		t.Fatalf("wrong format %q", c.Format)
	}
	if c.BatchSize != 20 {
		t.Fatalf("default not overwritten, batch size is %d", c.BatchSize)
	}
	if c.ImapConfig.Timeout.Duration != 30*time.Second {
		t.Fatalf("wrong timeout %s", c.ImapConfig.Timeout.Duration)
	}
}

func TestGetConfigErrors(t *testing.T) {
	_, err := GetConfig(Configuration{}, "")
	if err == nil {
		t.Fatal("expected error on empty filename")
	}
	_, err = GetConfig(Configuration{}, "this_does_not_exist")
	if err == nil {
		t.Fatal("expected error on invalid file")
	}
}

func TestGetConfigInvalid(t *testing.T) {
	for _, name := range []string{"invalid.json", "broken.json"} {
		_, err := GetConfig(Configuration{BatchSize: 30}, path.Join("..", "..", "testdata", name))
		if err == nil {
			t.Fatalf("expected error when reading %s but got none", name)
		}
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"1h"`), &d); err != nil {
		t.Fatalf("could not unmarshal string duration: %v", err)
	}
	if d.Duration != time.Hour {
		t.Fatalf("wrong duration %s", d.Duration)
	}
	if err := json.Unmarshal([]byte(`1000`), &d); err != nil {
		t.Fatalf("could not unmarshal numeric duration: %v", err)
	}
	if d.Duration != time.Microsecond {
		t.Fatalf("wrong duration %s", d.Duration)
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Fatal("expected error on invalid duration")
	}
	b, err := json.Marshal(Duration{Duration: 90 * time.Second})
	if err != nil {
		t.Fatalf("could not marshal duration: %v", err)
	}
	if string(b) != `"1m30s"` {
		t.Fatalf("wrong json %s", string(b))
	}
}
