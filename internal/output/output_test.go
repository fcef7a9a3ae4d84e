package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/firefart/dmarcxml2csv/internal/dmarc"
	"github.com/xuri/excelize/v2"
)

var testRow = dmarc.Row{
	SourceIP:        "1.2.3.4",
	Count:           "5",
	Disposition:     "none",
	SpfDmarcResult:  "pass",
	DkimDmarcResult: "fail",
	HeaderFrom:      "acme.com",
	SpfResult:       "pass",
	SpfAlignment:    dmarc.AlignmentFail,
	SpfDomain:       "other.com, inc",
	DkimResult:      "pass",
	DkimAlignment:   dmarc.AlignmentPass,
	DkimDomain:      "acme.com",
	OrgName:         "ACME",
	ReportID:        "R1",
	Begin:           time.Unix(1700000000, 0).UTC(),
	End:             time.Unix(1700003600, 0).UTC(),
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("could not open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("could not read csv: %v", err)
	}
	return records
}

func TestCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	sink, err := New(path, "")
	if err != nil {
		t.Fatalf("could not create sink: %v", err)
	}
	if err := sink.Write([]dmarc.Row{testRow, testRow}); err != nil {
		t.Fatalf("could not write rows: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("could not close sink: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(records))
	}
	if !slices.Equal(records[0], dmarc.Header) {
		t.Fatalf("wrong header: %v", records[0])
	}
	if !slices.Equal(records[1], testRow.Strings()) {
		t.Fatalf("wrong row: %v", records[1])
	}
	if records[1][16] != "2023-11-14 22:13:20" {
		t.Fatalf("wrong begin date: %q", records[1][16])
	}
}

func TestCSVHeaderOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	sink, err := New(path, FormatCSV)
	if err != nil {
		t.Fatalf("could not create sink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("could not close sink: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read output: %v", err)
	}
	want := "IP Address,Count,DMARC Disposition,DMARC SPF,DMARC DKIM,Header-From,Envelope-To,SPF Authentication,SPF Alignment,SPF Domain,DKIM Authentication,DKIM Alignment,DKIM Domain,Org Name,Email,Report ID,Begin Date,End Date\n"
	if string(b) != want {
		t.Fatalf("wrong output:\n%s", string(b))
	}
}

func TestXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	sink, err := New(path, "")
	if err != nil {
		t.Fatalf("could not create sink: %v", err)
	}
	if _, ok := sink.(*XLSX); !ok {
		t.Fatalf("expected xlsx sink, got %T", sink)
	}
	if err := sink.Write([]dmarc.Row{testRow}); err != nil {
		t.Fatalf("could not write rows: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("could not close sink: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("could not open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("could not read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !slices.Equal(rows[0], dmarc.Header) {
		t.Fatalf("wrong header: %v", rows[0])
	}
	if rows[1][0] != "1.2.3.4" || rows[1][9] != "other.com, inc" {
		t.Fatalf("wrong row: %v", rows[1])
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	if _, err := New(filepath.Join(t.TempDir(), "out.csv"), "json"); err == nil {
		t.Fatal("expected error on invalid format")
	}
	missing := filepath.Join(t.TempDir(), "this_does_not_exist", "out.csv")
	if _, err := New(missing, FormatCSV); err == nil {
		t.Fatal("expected error on unwritable csv path")
	}
	if _, err := New(missing, FormatXLSX); err == nil {
		t.Fatal("expected error on unwritable xlsx path")
	}
}

func TestFormatFromFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"out.csv":  FormatCSV,
		"out.xlsx": FormatXLSX,
		"OUT.XLSX": FormatXLSX,
		"out":      FormatCSV,
	}
	for name, want := range tests {
		if got := FormatFromFilename(name); got != want {
			t.Fatalf("%s: expected %s, got %s", name, want, got)
		}
	}
}
