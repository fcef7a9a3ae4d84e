package output

import (
	"fmt"
	"os"

	"github.com/firefart/dmarcxml2csv/internal/dmarc"
	"github.com/xuri/excelize/v2"
)

const SheetName = "DMARC"

// XLSX keeps all rows in a stream writer, the workbook is written to disk
// on Close. The file is created right away so an unwritable path fails early.
type XLSX struct {
	file     *os.File
	workbook *excelize.File
	stream   *excelize.StreamWriter
	row      int
}

func NewXLSX(path string) (*XLSX, error) {
	f, err := os.Create(path) // nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("could not create %s: %w", path, err)
	}

	workbook := excelize.NewFile()
	if err := workbook.SetSheetName(workbook.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not rename sheet: %w", err)
	}
	stream, err := workbook.NewStreamWriter(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not create stream writer: %w", err)
	}

	x := &XLSX{
		file:     f,
		workbook: workbook,
		stream:   stream,
	}
	if err := x.writeRow(dmarc.Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not write header: %w", err)
	}
	return x, nil
}

func (x *XLSX) writeRow(values []string) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return x.stream.SetRow(cell, row)
}

func (x *XLSX) Write(rows []dmarc.Row) error {
	for _, row := range rows {
		if err := x.writeRow(row.Strings()); err != nil {
			return fmt.Errorf("could not write row %d: %w", x.row, err)
		}
	}
	return nil
}

func (x *XLSX) Close() error {
	defer x.workbook.Close()
	if err := x.stream.Flush(); err != nil {
		_ = x.file.Close()
		return fmt.Errorf("could not flush sheet: %w", err)
	}
	if err := x.workbook.Write(x.file); err != nil {
		_ = x.file.Close()
		return fmt.Errorf("could not write workbook: %w", err)
	}
	return x.file.Close()
}
