package ingest

// Result holds the outcome of parsing one uploaded file.
type Result struct {
	File   string `json:"file"`
	Format Format `json:"format"`

	RowsReceived int `json:"rows_received"`
	RowsAccepted int `json:"rows_accepted"`
	RowsSkipped  int `json:"rows_skipped"`

	ClimbsParsed    int `json:"climbs_parsed,omitempty"`
	GymsScheduled   int `json:"gyms_scheduled,omitempty"`
	FinancialParsed int `json:"financial_parsed,omitempty"`

	Unrecognized map[string][]string `json:"unrecognized,omitempty"`
	NewGyms      map[string]string   `json:"new_gyms,omitempty"`

	Message string `json:"message,omitempty"`
}
