// Package district decides whether a retrieved registration falls inside
// the configured jurisdictions and redacts the ones that do not.
package district

import "github.com/civiceg/voterlookup/models"

// MsgOutOfDistrict is shown instead of the full record when the voter is
// registered outside the configured sections.
const MsgOutOfDistrict = "الناخب مسجل في دائرة خارج النطاق المستهدف"

// Filter is the allow-list of jurisdiction names.
type Filter struct {
	allowed map[string]struct{}
}

// NewFilter builds a filter from the configured section names. An empty
// list allows everything.
func NewFilter(sections []string) *Filter {
	allowed := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		if s != "" {
			allowed[s] = struct{}{}
		}
	}
	return &Filter{allowed: allowed}
}

// InScope reports whether the record passes through unredacted. Records
// with an empty district pass: redaction is a policy on known-out-of-scope
// jurisdictions, not on extraction gaps.
func (f *Filter) InScope(rec *models.Record) bool {
	if rec == nil || rec.District == "" || len(f.allowed) == 0 {
		return true
	}
	_, ok := f.allowed[rec.District]
	return ok
}

// Redact builds the out-of-scope notice: jurisdiction, centre and address
// are retained, committee and list numbers withheld.
func (f *Filter) Redact(rec *models.Record) models.OutOfDistrictData {
	return models.OutOfDistrictData{
		Message:         MsgOutOfDistrict,
		Reason:          string(models.StatusOutOfDistrict),
		District:        rec.District,
		ElectoralCenter: rec.ElectoralCenter,
		Address:         rec.Address,
	}
}
