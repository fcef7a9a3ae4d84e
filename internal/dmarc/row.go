package dmarc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	AlignmentPass = "pass"
	AlignmentFail = "fail"
)

// DateFormat is used for the begin and end columns, always in UTC
const DateFormat = time.DateTime

// Header holds the column names in the order Row.Strings returns the values
var Header = []string{
	"IP Address",
	"Count",
	"DMARC Disposition",
	"DMARC SPF",
	"DMARC DKIM",
	"Header-From",
	"Envelope-To",
	"SPF Authentication",
	"SPF Alignment",
	"SPF Domain",
	"DKIM Authentication",
	"DKIM Alignment",
	"DKIM Domain",
	"Org Name",
	"Email",
	"Report ID",
	"Begin Date",
	"End Date",
}

// Row is one record of a report combined with one dkim and one spf result.
// Values missing in the report are empty strings.
type Row struct {
	SourceIP        string
	Count           string
	Disposition     string
	SpfDmarcResult  string
	DkimDmarcResult string
	HeaderFrom      string
	EnvelopeTo      string
	SpfResult       string
	SpfAlignment    string
	SpfDomain       string
	DkimResult      string
	DkimAlignment   string
	DkimDomain      string
	OrgName         string
	Email           string
	ReportID        string
	Begin           time.Time
	End             time.Time
}

// Strings returns the row values in Header order
func (r Row) Strings() []string {
	return []string{
		r.SourceIP,
		r.Count,
		r.Disposition,
		r.SpfDmarcResult,
		r.DkimDmarcResult,
		r.HeaderFrom,
		r.EnvelopeTo,
		r.SpfResult,
		r.SpfAlignment,
		r.SpfDomain,
		r.DkimResult,
		r.DkimAlignment,
		r.DkimDomain,
		r.OrgName,
		r.Email,
		r.ReportID,
		r.Begin.Format(DateFormat),
		r.End.Format(DateFormat),
	}
}

// Flatten converts a report into rows. Every record yields one row per
// dkim/spf pair, pairing the entries by position and dropping the surplus
// entries of the longer list. A record without dkim or spf results yields no
// rows at all.
// An error is returned if a required element is missing or the date range is
// not numeric, in that case no rows are returned.
func Flatten(report *XMLReport) ([]Row, error) {
	if report == nil || report.ReportMetadata == nil {
		return nil, errors.New("report_metadata missing")
	}
	meta := report.ReportMetadata
	if meta.DateRange == nil {
		return nil, errors.New("date_range missing")
	}
	begin, err := parseTimestamp("begin", meta.DateRange.Begin)
	if err != nil {
		return nil, err
	}
	end, err := parseTimestamp("end", meta.DateRange.End)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i, record := range report.Records {
		switch {
		case record.Row == nil:
			return nil, fmt.Errorf("record %d: row missing", i)
		case record.Row.PolicyEvaluated == nil:
			return nil, fmt.Errorf("record %d: policy_evaluated missing", i)
		case record.Identifiers == nil:
			return nil, fmt.Errorf("record %d: identifiers missing", i)
		case record.AuthResults == nil:
			return nil, fmt.Errorf("record %d: auth_results missing", i)
		}

		policy := record.Row.PolicyEvaluated
		headerFrom := record.Identifiers.HeaderFrom
		dkims := record.AuthResults.Dkim
		spfs := record.AuthResults.Spf

		for j := 0; j < min(len(dkims), len(spfs)); j++ {
			dkim := dkims[j]
			spf := spfs[j]
			rows = append(rows, Row{
				SourceIP:        text(record.Row.SourceIP),
				Count:           text(record.Row.Count),
				Disposition:     text(policy.Disposition),
				SpfDmarcResult:  text(policy.Spf),
				DkimDmarcResult: text(policy.Dkim),
				HeaderFrom:      text(headerFrom),
				EnvelopeTo:      text(record.Identifiers.EnvelopeTo),
				SpfResult:       text(spf.Result),
				SpfAlignment:    Alignment(spf.Domain, headerFrom),
				SpfDomain:       text(spf.Domain),
				DkimResult:      text(dkim.Result),
				DkimAlignment:   Alignment(dkim.Domain, headerFrom),
				DkimDomain:      text(dkim.Domain),
				OrgName:         text(meta.OrgName),
				Email:           text(meta.Email),
				ReportID:        text(meta.ReportID),
				Begin:           begin,
				End:             end,
			})
		}
	}
	return rows, nil
}

// Alignment returns "pass" if domain is exactly headerFrom and "fail"
// otherwise. No organizational domain matching is done and a missing value
// never aligns.
func Alignment(domain, headerFrom *Text) string {
	if domain == nil || headerFrom == nil {
		return AlignmentFail
	}
	if domain.Value == headerFrom.Value {
		return AlignmentPass
	}
	return AlignmentFail
}

func parseTimestamp(name string, value *Text) (time.Time, error) {
	if value == nil {
		return time.Time{}, fmt.Errorf("date_range %s missing", name)
	}
	i, err := strconv.ParseInt(strings.TrimSpace(value.Value), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date_range %s %q: %w", name, value.Value, err)
	}
	return time.Unix(i, 0).UTC(), nil
}

func text(t *Text) string {
	if t == nil {
		return ""
	}
	return t.Value
}
