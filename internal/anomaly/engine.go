package anomaly

import (
	"log/slog"

	"github.com/biometriqa/harness/internal/domain"
)

// Rule is a pure check over one transaction node. It returns zero or more
// findings and must not mutate the transaction or depend on other rules.
type Rule struct {
	Name  string
	Check func(tx *domain.Transaction, p Policy) []domain.Anomaly
}

// Engine runs a fixed, ordered rule list over a transaction tree. Rules are
// evaluated independently; no rule suppresses another. The returned list
// preserves evaluation order: nodes in pre-order, rules in declared order.
// Callers wanting severity grouping do that downstream.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// New creates an engine with the default rule set.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: defaultRules(), logger: logger}
}

// Rules exposes the ordered rule names, mainly for reporting.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Evaluate applies every rule to tx and its descendants. Findings are
// attached to the node that produced them and returned concatenated.
func (e *Engine) Evaluate(tx *domain.Transaction, p Policy) []domain.Anomaly {
	var findings []domain.Anomaly

	tx.Walk(func(node *domain.Transaction) {
		for _, rule := range e.rules {
			for _, a := range rule.Check(node, p) {
				e.logger.Warn("anomaly detected",
					slog.String("rule", rule.Name),
					slog.String("step", node.StepName),
					slog.String("severity", string(a.Severity)),
					slog.String("message", a.Message),
				)
				node.AddAnomaly(a)
				findings = append(findings, a)
			}
		}
	})

	return findings
}
