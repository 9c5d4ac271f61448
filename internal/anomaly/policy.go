// Package anomaly inspects recorded transaction trees for security-relevant
// inconsistencies between what the server decided and what declared policy
// allows.
package anomaly

import "github.com/biometriqa/harness/internal/config"

// Policy holds the declared thresholds findings are checked against.
type Policy struct {
	MinAge int
	MaxAge int

	// MinTolerance and MaxTolerance widen the acceptable range at each
	// end. All range checks go through AgeInRange so tolerance handling
	// is applied uniformly.
	MinTolerance int
	MaxTolerance int

	// ExpiryWarningMonths is the threshold below which a document that is
	// not yet expired still draws a warning.
	ExpiryWarningMonths int

	// ExpectedAuthResult, when set, is the categorical result the current
	// scenario expects from authentication steps.
	ExpectedAuthResult string
}

// PolicyFromConfig maps the loaded configuration onto an engine policy.
func PolicyFromConfig(cfg config.PolicyConfig) Policy {
	p := Policy{
		MinAge:              cfg.MinAge,
		MaxAge:              cfg.MaxAge,
		MinTolerance:        cfg.MinTolerance,
		MaxTolerance:        cfg.MaxTolerance,
		ExpiryWarningMonths: cfg.ExpiryWarningMonths,
		ExpectedAuthResult:  cfg.ExpectedAuthResult,
	}
	if p.ExpiryWarningMonths <= 0 {
		p.ExpiryWarningMonths = 6
	}
	return p
}

// AgeInRange reports whether age falls inside [minAge-MinTolerance,
// maxAge+MaxTolerance].
func (p Policy) AgeInRange(age, minAge, maxAge int) bool {
	return age >= minAge-p.MinTolerance && age <= maxAge+p.MaxTolerance
}
