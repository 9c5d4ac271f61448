package report

import (
	"time"

	"github.com/biometriqa/harness/internal/domain"
)

// Summary is the presentation-ready aggregate of a finalized report. It only
// folds what the analysis engine already produced; no anomaly is recomputed
// here.
type Summary struct {
	RunID           string           `json:"run_id"`
	TestName        string           `json:"test_name"`
	ExpectedOutcome string           `json:"expected_outcome,omitempty"`
	ActualOutcome   string           `json:"actual_outcome,omitempty"`
	Passed          bool             `json:"passed"`
	Success         bool             `json:"success"`
	Duration        time.Duration    `json:"duration"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	Transactions    int              `json:"transactions"`
	Criticals       []domain.Anomaly `json:"criticals,omitempty"`
	Warnings        []domain.Anomaly `json:"warnings,omitempty"`
	Infos           []domain.Anomaly `json:"infos,omitempty"`
}

// Assemble partitions the report's anomalies by severity and computes the
// aggregate verdict. Success means zero critical findings; warnings and
// informational findings never flip it.
func Assemble(r *Report) Summary {
	s := Summary{
		RunID:           r.RunID,
		TestName:        r.TestName,
		ExpectedOutcome: r.ExpectedOutcome,
		ActualOutcome:   r.ActualOutcome,
		Duration:        r.Duration(),
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Transactions:    len(r.Transactions),
	}
	if r.Passed != nil {
		s.Passed = *r.Passed
	}

	for _, a := range r.Anomalies {
		s.add(a)
	}
	for _, tx := range r.Transactions {
		tx.Walk(func(node *domain.Transaction) {
			for _, a := range node.Anomalies {
				s.add(a)
			}
		})
	}

	s.Success = len(s.Criticals) == 0
	return s
}

func (s *Summary) add(a domain.Anomaly) {
	switch a.Severity {
	case domain.SeverityCritical:
		s.Criticals = append(s.Criticals, a)
	case domain.SeverityWarning:
		s.Warnings = append(s.Warnings, a)
	default:
		s.Infos = append(s.Infos, a)
	}
}
