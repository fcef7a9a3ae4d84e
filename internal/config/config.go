package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

type Configuration struct {
	Format          string     `json:"format" validate:"omitempty,oneof=csv xlsx"`
	ImapConfig      IMAPConfig `json:"imap"`
	BatchSize       int        `json:"batchSize" validate:"gt=0"`
	DeleteProcessed bool       `json:"deleteProcessed"`
}

type IMAPConfig struct {
	Host       string   `json:"host" validate:"required,hostname_port"`
	SSL        bool     `json:"ssl"`
	User       string   `json:"user" validate:"required"`
	Pass       string   `json:"pass"`
	Folder     string   `json:"folder" validate:"required"`
	IgnoreCert bool     `json:"ignoreCert"`
	Timeout    Duration `json:"timeout"`
}

func GetConfig(defaults Configuration, f string) (*Configuration, error) {
	if f == "" {
		return nil, fmt.Errorf("please provide a valid config file")
	}

	b, err := os.ReadFile(f) // nolint: gosec
	if err != nil {
		return nil, err
	}
	reader := bytes.NewReader(b)

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&defaults); err != nil {
		return nil, err
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(defaults); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &defaults, nil
}
