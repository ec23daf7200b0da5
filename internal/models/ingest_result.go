package models

// EntryFailure is one reading the store refused to save.
type EntryFailure struct {
	Index int    `json:"index"`
	MAC   string `json:"mac"`
	Err   error  `json:"-"`
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Received int            `json:"received"`
	Dropped  int            `json:"dropped"`
	Saved    int            `json:"saved"`
	Failures []EntryFailure `json:"failures,omitempty"`
}
