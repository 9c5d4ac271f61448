// Package report collects transactions and findings for one test run and
// folds them into a summary verdict.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/biometriqa/harness/internal/domain"
)

// Report is the aggregate record of one test run. Transactions and anomalies
// are appended as calls happen from a single logical test goroutine; the
// report is not designed for concurrent writers.
type Report struct {
	RunID           string                `json:"run_id"`
	TestName        string                `json:"test_name"`
	ExpectedOutcome string                `json:"expected_outcome,omitempty"`
	ActualOutcome   string                `json:"actual_outcome,omitempty"`
	Transactions    []*domain.Transaction `json:"transactions"`
	Anomalies       []domain.Anomaly      `json:"anomalies,omitempty"`
	Metadata        map[string]any        `json:"metadata,omitempty"`
	StartTime       time.Time             `json:"start_time"`
	EndTime         time.Time             `json:"end_time,omitzero"`
	Passed          *bool                 `json:"passed"`

	finalized bool
}

// New creates a report stamped with the current time.
func New(testName, expectedOutcome string) *Report {
	return &Report{
		RunID:           uuid.NewString(),
		TestName:        testName,
		ExpectedOutcome: expectedOutcome,
		Metadata:        make(map[string]any),
		StartTime:       time.Now(),
	}
}

// AddTransaction appends a transaction to the report.
func (r *Report) AddTransaction(tx *domain.Transaction) {
	r.mustBeOpen()
	r.Transactions = append(r.Transactions, tx)
}

// AddAnomaly appends a run-level anomaly not tied to a single transaction.
func (r *Report) AddAnomaly(a domain.Anomaly) {
	r.mustBeOpen()
	r.Anomalies = append(r.Anomalies, a)
}

// Finalize stamps the end time and verdict. It is terminal: calling it twice
// is a programming error and panics rather than silently overwriting the end
// time.
func (r *Report) Finalize(passed bool) {
	if r.finalized {
		panic("report: Finalize called twice")
	}
	r.finalized = true
	r.EndTime = time.Now()
	r.Passed = &passed
}

// Finalized reports whether Finalize has been called.
func (r *Report) Finalized() bool {
	return r.finalized
}

// Duration returns the elapsed run time, zero until finalized.
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

func (r *Report) mustBeOpen() {
	if r.finalized {
		panic("report: mutation after Finalize")
	}
}
