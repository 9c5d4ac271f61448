package domain

import "time"

// Severity classifies how serious an anomaly is. Only CRITICAL findings flip
// a run's verdict; warnings and informational findings never do.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// AnomalyKind identifies the detection rule family that produced a finding.
type AnomalyKind string

const (
	KindAgeVerificationBypass AnomalyKind = "age_verification_bypass"
	KindLivenessBypass        AnomalyKind = "liveness_bypass"
	KindFieldMismatch         AnomalyKind = "field_mismatch"
	KindDocumentExpired       AnomalyKind = "document_expired"
	KindDocumentExpiringSoon  AnomalyKind = "document_expiring_soon"
	KindStateMismatch         AnomalyKind = "state_mismatch"
	KindUnexpectedResult      AnomalyKind = "unexpected_result"
	KindValidationRuleFailed  AnomalyKind = "validation_rule_failed"
	KindFaceMatchFailed       AnomalyKind = "face_match_failed"
	KindUnexpectedFailure     AnomalyKind = "unexpected_failure"
)

// Anomaly is a single finding emitted by the analysis engine. Immutable once
// created.
type Anomaly struct {
	Kind           AnomalyKind    `json:"kind"`
	Severity       Severity       `json:"severity"`
	Message        string         `json:"message"`
	Details        map[string]any `json:"details,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// NewAnomaly creates an anomaly stamped with the current time.
func NewAnomaly(kind AnomalyKind, severity Severity, message string) Anomaly {
	return Anomaly{
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
	}
}
