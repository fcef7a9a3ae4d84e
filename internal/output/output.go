package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firefart/dmarcxml2csv/internal/dmarc"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Sink receives the converted rows. The header is written when the sink is
// created so an empty run still results in a valid file.
type Sink interface {
	Write(rows []dmarc.Row) error
	Close() error
}

// New creates the output file. If format is empty it is guessed from the
// file extension, defaulting to csv.
func New(path, format string) (Sink, error) {
	if format == "" {
		format = FormatFromFilename(path)
	}
	switch format {
	case FormatCSV:
		return NewCSV(path)
	case FormatXLSX:
		return NewXLSX(path)
	default:
		return nil, fmt.Errorf("invalid format %s", format)
	}
}

func FormatFromFilename(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}
