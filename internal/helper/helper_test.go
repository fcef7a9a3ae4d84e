package helper

import "testing"

func TestIsSupportedArchive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{name: "gzip", content: []byte{31, 139, 8, 0, 0, 0, 0, 0, 0, 3, 1, 2}, want: true},
		{name: "zip", content: []byte("PK\x03\x04rest of the file"), want: true},
		{name: "empty zip", content: []byte("PK\x05\x06"), want: true},
		{name: "xml", content: []byte("<?xml version=\"1.0\"?>"), want: false},
		{name: "short", content: []byte{31}, want: false},
		{name: "empty", content: []byte{}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsSupportedArchive(tc.content); got != tc.want {
				t.Fatalf("expected %t, got %t", tc.want, got)
			}
		})
	}
}
