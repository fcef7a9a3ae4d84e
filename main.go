package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/firefart/dmarcxml2csv/internal/convert"
	"github.com/firefart/dmarcxml2csv/internal/output"
	"github.com/firefart/dmarcxml2csv/internal/source"
	"github.com/mattn/go-isatty"
)

func main() {
	// trap Ctrl+C and call cancel on the context
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()

	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1) // nolint: gocritic
	}
}

func newLogger(w io.Writer, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           log.InfoLevel,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	// colored output on a terminal, logfmt everywhere else
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger
}

// run converts all documents of src into outputFile. The output file is
// created after the source has been checked and removed again if the run
// fails.
func run(ctx context.Context, logger *log.Logger, src source.Source, outputFile, format string) error {
	if checker, ok := src.(source.Checker); ok {
		if err := checker.Check(ctx); err != nil {
			return err
		}
	}

	sink, err := output.New(outputFile, format)
	if err != nil {
		return err
	}

	stats, err := convert.New(sink, logger).Run(ctx, src)
	if err != nil {
		_ = sink.Close()
		if rmErr := os.Remove(outputFile); rmErr != nil {
			logger.Errorf("could not remove %s: %v", outputFile, rmErr)
		}
		return err
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", outputFile, err)
	}

	logger.Info("conversion finished", "documents", stats.Documents, "rows", stats.Rows, "failed", stats.Failed, "output", outputFile)
	if err := stats.Errors.ErrorOrNil(); err != nil {
		logger.Warnf("%d documents could not be converted", stats.Failed)
		logger.Debug(err.Error())
	}
	return nil
}
