package model

// ParseResult is the output of parsing one statement file.
type ParseResult struct {
	Transactions   []Transaction `json:"transactions"`
	DetectedLayout string        `json:"detected_layout"`
	RowErrors      []string      `json:"row_errors"`
}

// ImportReport summarises one import operation. Created once per import
// call and returned to the caller; the core retains nothing.
type ImportReport struct {
	Parsed         int      `json:"parsed"`
	Imported       int      `json:"imported"`
	Duplicates     int      `json:"duplicates"`
	AutoMatched    int      `json:"auto_matched"`
	Suggested      int      `json:"suggested"`
	Unmatched      int      `json:"unmatched"`
	Failed         int      `json:"failed"`
	DetectedLayout string   `json:"detected_layout"`
	RowErrors      []string `json:"row_errors,omitempty"`
}
