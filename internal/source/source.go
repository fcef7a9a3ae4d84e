package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is a single report file. Name is used to detect the compression
// and shows up in log messages.
type Document struct {
	Name    string
	Content []byte
	// Err is set if the document could not be read
	Err error
}

// Source hands out documents one at a time. Walk stops and returns the error
// if fn returns one.
type Source interface {
	Walk(ctx context.Context, fn func(Document) error) error
}

// Checker is implemented by sources that can tell if they are usable before
// any output is created
type Checker interface {
	Check(ctx context.Context) error
}

// Directory returns all *.xml files directly inside a directory
type Directory struct {
	Path string
}

func NewDirectory(path string) *Directory {
	return &Directory{Path: path}
}

// Check makes sure the directory can be listed
func (d *Directory) Check(_ context.Context) error {
	if _, err := os.ReadDir(d.Path); err != nil {
		return fmt.Errorf("could not read directory %s: %w", d.Path, err)
	}
	return nil
}

func (d *Directory) Walk(ctx context.Context, fn func(Document) error) error {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return fmt.Errorf("could not read directory %s: %w", d.Path, err)
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// hidden files are skipped like a shell glob does
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if match, _ := filepath.Match("*.xml", entry.Name()); !match {
			continue
		}

		filename := filepath.Join(d.Path, entry.Name())
		// an unreadable file is handled like a broken report
		content, readErr := os.ReadFile(filename) // nolint: gosec
		if err := fn(Document{Name: filename, Content: content, Err: readErr}); err != nil {
			return err
		}
	}
	return nil
}
