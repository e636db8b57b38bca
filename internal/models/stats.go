package models

import "fmt"

// InsertOutcome classifies what the dedup engine did with one record.
type InsertOutcome int

const (
	// OutcomeAdded means a new row was created.
	OutcomeAdded InsertOutcome = iota
	// OutcomeUpdated means an unedited duplicate was refreshed in place.
	OutcomeUpdated
	// OutcomeSkipped means the record was discarded (edited duplicate or
	// exact-match race).
	OutcomeSkipped
)

// String returns the outcome name.
func (o InsertOutcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// BatchStats aggregates per-record insert outcomes for one batch.
type BatchStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Record tallies one insert outcome.
func (b *BatchStats) Record(outcome InsertOutcome) {
	switch outcome {
	case OutcomeAdded:
		b.Added++
	case OutcomeUpdated:
		b.Updated++
	case OutcomeSkipped:
		b.Skipped++
	}
}

// Total returns the number of records the batch attempted.
func (b BatchStats) Total() int {
	return b.Added + b.Updated + b.Skipped + b.Errors
}

// String summarizes the batch for log and status messages.
func (b BatchStats) String() string {
	return fmt.Sprintf("added=%d updated=%d skipped=%d errors=%d",
		b.Added, b.Updated, b.Skipped, b.Errors)
}

// ProcessStats aggregates one AI pass.
type ProcessStats struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// String summarizes the pass for log and status messages.
func (p ProcessStats) String() string {
	return fmt.Sprintf("processed=%d failed=%d skipped=%d",
		p.Processed, p.Failed, p.Skipped)
}

// RefreshStats aggregates one description backfill pass.
type RefreshStats struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// String summarizes the pass for log and status messages.
func (r RefreshStats) String() string {
	return fmt.Sprintf("updated=%d failed=%d", r.Updated, r.Failed)
}

// SourceResult is the per-source outcome of one scrape trigger.
type SourceResult struct {
	Source string `json:"source"`
	Config string `json:"config"`
	Found  int    `json:"found"`
	Added  int    `json:"added"`
	Err    error  `json:"-"`
}

// StoreStats is the aggregate snapshot the status surface renders.
type StoreStats struct {
	Total        int `db:"total" json:"total"`
	Sources      int `db:"sources" json:"sources"`
	Companies    int `db:"companies" json:"companies"`
	Applied      int `db:"applied" json:"applied"`
	Edited       int `db:"edited" json:"edited"`
	Interested   int `db:"interested" json:"interested"`
	Interviewing int `db:"interviewing" json:"interviewing"`
	Contract     int `db:"contract" json:"contract"`
	Permanent    int `db:"permanent" json:"permanent"`
	Remote       int `db:"remote" json:"remote"`
}
