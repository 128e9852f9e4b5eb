package services

// SkipReason names the expected outcomes under which a transaction candidate
// is dropped without aborting the run. Making the reasons explicit keeps
// skip-and-continue behavior assertable instead of silently swallowed.
type SkipReason string

const (
	// SkipNone means the candidate was inserted.
	SkipNone SkipReason = ""
	// SkipDuplicate means the store already holds an identical
	// (accession_number, insider_id, transaction_date, shares_traded) row.
	SkipDuplicate SkipReason = "duplicate"
	// SkipUndated means neither filing date nor transaction date resolved
	// to a valid date.
	SkipUndated SkipReason = "undated"
	// SkipMissingIssuer means the filing carried no issuer CIK, so the
	// record cannot be attached to a company.
	SkipMissingIssuer SkipReason = "missing_issuer"
)

// IngestResult summarizes one ingestion pass.
type IngestResult struct {
	FilingsProcessed     int                `json:"filings_processed"`
	UnparsableFilings    int                `json:"unparsable_filings"`
	TransactionsInserted int                `json:"transactions_inserted"`
	Skipped              map[SkipReason]int `json:"skipped,omitempty"`
}

func NewIngestResult() *IngestResult {
	return &IngestResult{Skipped: make(map[SkipReason]int)}
}

func (r *IngestResult) recordOutcome(reason SkipReason) {
	if reason == SkipNone {
		r.TransactionsInserted++
		return
	}
	r.Skipped[reason]++
}
