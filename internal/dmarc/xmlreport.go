package dmarc

import "encoding/xml"

// Text is the content of an element. A report sometimes repeats an element,
// only the first occurrence is kept.
type Text struct {
	Value string
	set   bool
}

func (t *Text) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	if t.set {
		return nil
	}
	t.Value = s
	t.set = true
	return nil
}

// XMLReport represents the top element of a DMARC aggregate report
// https://tools.ietf.org/html/rfc7489#appendix-C
//
// Elements the flattening needs are pointers so a missing element can be told
// apart from an empty one.
type XMLReport struct {
	Version         string           `xml:"version"`
	ReportMetadata  *ReportMetadata  `xml:"report_metadata"`
	PolicyPublished *PolicyPublished `xml:"policy_published"`
	Records         []Record         `xml:"record"`
}

// ReportMetadata holds the reporter information
type ReportMetadata struct {
	OrgName          *Text    `xml:"org_name"`
	Email            *Text    `xml:"email"`
	ExtraContactInfo *Text    `xml:"extra_contact_info"`
	ReportID         *Text    `xml:"report_id"`
	DateRange        *DateRange `xml:"date_range"`
	Error            []string   `xml:"error"`
}

// DateRange is kept as text, begin and end are validated when flattening
type DateRange struct {
	Begin *Text `xml:"begin"`
	End   *Text `xml:"end"`
}

type PolicyPublished struct {
	Domain string `xml:"domain"`
	Adkim  string `xml:"adkim"`
	Aspf   string `xml:"aspf"`
	P      string `xml:"p"`
	Sp     string `xml:"sp"`
	Pct    string `xml:"pct"`
	Fo     string `xml:"fo"`
}

// Record represents the record element of a DMARC report
type Record struct {
	Row         *RecordRow   `xml:"row"`
	Identifiers *Identifiers `xml:"identifiers"`
	AuthResults *AuthResults `xml:"auth_results"`
}

type RecordRow struct {
	SourceIP *Text `xml:"source_ip"`
	// Count is passed through verbatim
	Count           *Text          `xml:"count"`
	PolicyEvaluated *PolicyEvaluated `xml:"policy_evaluated"`
}

type PolicyEvaluated struct {
	Disposition *Text                `xml:"disposition"`
	Dkim        *Text                `xml:"dkim"`
	Spf         *Text                `xml:"spf"`
	Reason      []PolicyOverrideReason `xml:"reason"`
}

// PolicyOverrideReason represents the reason element of a DMARC report
type PolicyOverrideReason struct {
	Type    string `xml:"type"`
	Comment string `xml:"comment"`
}

type Identifiers struct {
	EnvelopeTo   *Text `xml:"envelope_to"`
	EnvelopeFrom *Text `xml:"envelope_from"`
	HeaderFrom   *Text `xml:"header_from"`
}

// AuthResults keeps the dkim and spf entries in document order
type AuthResults struct {
	Dkim []AuthResult `xml:"dkim"`
	Spf  []AuthResult `xml:"spf"`
}

// AuthResult is a single dkim or spf evaluation. Selector and HumanResult are
// only set on dkim entries, Scope only on spf entries.
type AuthResult struct {
	Domain      *Text `xml:"domain"`
	Result      *Text `xml:"result"`
	Selector    *Text `xml:"selector"`
	Scope       *Text `xml:"scope"`
	HumanResult *Text `xml:"human_result"`
}
