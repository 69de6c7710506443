package models

// Status is the classified result of one successful page read.
type Status string

const (
	StatusRegistered    Status = "registered"
	StatusNotRegistered Status = "not_registered"
	StatusUnderage      Status = "underage"
	StatusOutOfDistrict Status = "out_of_district"
)

// Record holds the five fields extracted from a registration result page.
// Fields the page did not yield stay empty; a record is produced whole or
// not at all.
type Record struct {
	ElectoralCenter     string `json:"electoral_center"`
	District            string `json:"district"`
	Address             string `json:"address"`
	SubcommitteeNumber  string `json:"subcommittee_number"`
	ElectoralListNumber string `json:"electoral_list_number"`
}

// Empty reports whether no field was extracted at all. An all-empty record
// on a page that looked like a registration usually means the page layout
// changed; callers flag it for monitoring.
func (r Record) Empty() bool {
	return r.ElectoralCenter == "" && r.District == "" && r.Address == "" &&
		r.SubcommitteeNumber == "" && r.ElectoralListNumber == ""
}

// Outcome is the classification of one completed page read. Exactly one of
// Record (registered) or Message (terminal statuses) is meaningful.
type Outcome struct {
	Status  Status
	Record  *Record
	Message string // verbatim registry text for terminal statuses
}

// Terminal reports whether the outcome is a definitive domain answer that
// ends retrying.
func (o *Outcome) Terminal() bool {
	switch o.Status {
	case StatusRegistered, StatusNotRegistered, StatusUnderage:
		return true
	}
	return false
}

// LookupResult is the externally visible result of one top-level lookup.
// On failure LastErrorCode holds the code of the failure described by
// LastError, so callers can tell a navigation failure from a timeout.
type LookupResult struct {
	Success          bool
	Outcome          *Outcome
	Attempts         int
	LastError        string
	LastErrorCode    string
	RetriesExhausted bool
}
