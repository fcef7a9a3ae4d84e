package convert

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/firefart/dmarcxml2csv/internal/dmarc"
	"github.com/firefart/dmarcxml2csv/internal/output"
	"github.com/firefart/dmarcxml2csv/internal/source"
	"github.com/hashicorp/go-multierror"
)

// Stats summarises a run. Errors holds one entry per failed document.
type Stats struct {
	Documents int
	Failed    int
	Rows      int
	Errors    *multierror.Error
}

type Converter struct {
	sink   output.Sink
	logger *log.Logger
}

func New(sink output.Sink, logger *log.Logger) *Converter {
	return &Converter{
		sink:   sink,
		logger: logger,
	}
}

// Run converts all documents of src and writes the rows to the sink in
// document order. A broken document is logged and skipped, only errors of the
// source or the sink abort the run.
func (c *Converter) Run(ctx context.Context, src source.Source) (Stats, error) {
	var stats Stats
	err := src.Walk(ctx, func(doc source.Document) error {
		stats.Documents++
		rows, err := c.Document(doc)
		if err != nil {
			c.logger.Error("error processing file", "file", doc.Name, "err", err)
			stats.Failed++
			stats.Errors = multierror.Append(stats.Errors, fmt.Errorf("%s: %w", doc.Name, err))
			return nil
		}
		c.logger.Debug("converted file", "file", doc.Name, "rows", len(rows))
		if err := c.sink.Write(rows); err != nil {
			return fmt.Errorf("could not write rows of %s: %w", doc.Name, err)
		}
		stats.Rows += len(rows)
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// Document converts a single document into rows
func (c *Converter) Document(doc source.Document) ([]dmarc.Row, error) {
	if doc.Err != nil {
		return nil, fmt.Errorf("could not read file: %w", doc.Err)
	}
	_, report, err := dmarc.ReadFile(doc.Name, doc.Content)
	if err != nil {
		return nil, err
	}
	rows, err := dmarc.Flatten(report)
	if err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}
	return rows, nil
}
