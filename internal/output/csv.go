package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/firefart/dmarcxml2csv/internal/dmarc"
)

type CSV struct {
	file   *os.File
	writer *csv.Writer
}

func NewCSV(path string) (*CSV, error) {
	f, err := os.Create(path) // nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("could not create %s: %w", path, err)
	}
	c := &CSV{
		file:   f,
		writer: csv.NewWriter(f),
	}
	if err := c.writer.Write(dmarc.Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not write header: %w", err)
	}
	return c, nil
}

func (c *CSV) Write(rows []dmarc.Row) error {
	for _, row := range rows {
		if err := c.writer.Write(row.Strings()); err != nil {
			return fmt.Errorf("could not write row: %w", err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSV) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("could not flush csv: %w", err)
	}
	return c.file.Close()
}
