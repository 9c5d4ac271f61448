package anomaly

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/biometriqa/harness/internal/domain"
)

// defaultRules returns the rule list in its fixed evaluation order.
func defaultRules() []Rule {
	return []Rule{
		{Name: "age-verification-bypass", Check: checkAgeVerificationBypass},
		{Name: "liveness-bypass", Check: checkLivenessBypass},
		{Name: "field-mismatch", Check: checkFieldMismatch},
		{Name: "document-expiry", Check: checkDocumentExpiry},
		{Name: "state-mismatch", Check: checkStateMismatch},
		{Name: "validation-rules", Check: checkValidationRules},
		{Name: "field-error-codes", Check: checkFieldErrorCodes},
		{Name: "face-match", Check: checkFaceMatch},
		{Name: "unexpected-result", Check: checkUnexpectedResult},
	}
}

// checkAgeVerificationBypass fires when the detected age falls outside the
// acceptable range yet the server did not record FAIL. An absent age means
// insufficient data; no finding is produced.
func checkAgeVerificationBypass(tx *domain.Transaction, p Policy) []domain.Anomaly {
	age, ok := dataInt(tx, domain.DataDetectedAge)
	if !ok {
		return nil
	}

	// Prefer bounds the server reported for this transaction; fall back
	// to the declared policy range.
	minAge, haveMin := dataInt(tx, domain.DataMinAge)
	maxAge, haveMax := dataInt(tx, domain.DataMaxAge)
	if !haveMin || !haveMax {
		minAge, maxAge = p.MinAge, p.MaxAge
	}
	if minAge == 0 && maxAge == 0 {
		return nil
	}

	result, _ := dataString(tx, domain.DataAgeResult)
	if p.AgeInRange(age, minAge, maxAge) || result == "FAIL" {
		return nil
	}

	a := domain.NewAnomaly(domain.KindAgeVerificationBypass, domain.SeverityCritical,
		fmt.Sprintf("age verification not enforced: age %d is outside %d-%d but the check did not fail",
			age, minAge, maxAge))
	a.Details = map[string]any{
		"detected_age":  age,
		"min_age":       minAge,
		"max_age":       maxAge,
		"actual_result": result,
	}
	a.Recommendation = "Investigate immediately: age verification may be disabled or misconfigured"
	return []domain.Anomaly{a}
}

// checkLivenessBypass fires when the liveness decision was not LIVE yet the
// enclosing step reported success.
func checkLivenessBypass(tx *domain.Transaction, _ Policy) []domain.Anomaly {
	decision, ok := dataString(tx, domain.DataLivenessDecision)
	if !ok || decision == "LIVE" {
		return nil
	}
	success, ok := dataBool(tx, domain.DataOverallSuccess)
	if !ok || !success {
		return nil
	}

	a := domain.NewAnomaly(domain.KindLivenessBypass, domain.SeverityCritical,
		fmt.Sprintf("liveness check bypassed: decision was %q but the step succeeded", decision))
	a.Details = map[string]any{
		"liveness_decision": decision,
	}
	if score, ok := tx.Data[domain.DataLivenessScore]; ok {
		a.Details["liveness_score"] = score
	}
	a.Recommendation = "Investigate immediately: a potential spoof attack was allowed through"
	return []domain.Anomaly{a}
}

// checkFieldMismatch compares each OCR field's values across physical
// sources. A mismatch between two non-empty values is a tamper indicator;
// a field with only one source present is not a mismatch.
func checkFieldMismatch(tx *domain.Transaction, _ Policy) []domain.Anomaly {
	fields, ok := documentFields(tx)
	if !ok {
		return nil
	}

	var findings []domain.Anomaly
	for _, f := range fields {
		if f.Visual != "" && f.Barcode != "" && f.Visual != f.Barcode {
			findings = append(findings, fieldMismatch(f.Name, "visual", f.Visual, "barcode", f.Barcode))
		}
		if f.Visual != "" && f.MRZ != "" && f.Visual != f.MRZ {
			findings = append(findings, fieldMismatch(f.Name, "visual", f.Visual, "mrz", f.MRZ))
		}
	}
	return findings
}

func fieldMismatch(field, sourceA, valueA, sourceB, valueB string) domain.Anomaly {
	a := domain.NewAnomaly(domain.KindFieldMismatch, domain.SeverityCritical,
		fmt.Sprintf("field %q: %s value %q does not match %s value %q", field, sourceA, valueA, sourceB, valueB))
	a.Details = map[string]any{
		"field":  field,
		sourceA:  valueA,
		sourceB:  valueB,
	}
	a.Recommendation = "Possible document tampering or data inconsistency"
	return a
}

// checkDocumentExpiry reads the "Months to expire" field: expired documents
// are critical, documents expiring inside the warning window draw a warning.
func checkDocumentExpiry(tx *domain.Transaction, p Policy) []domain.Anomaly {
	fields, ok := documentFields(tx)
	if !ok {
		return nil
	}

	for _, f := range fields {
		if f.Name != domain.FieldMonthsToExpire || f.Visual == "" {
			continue
		}
		months, err := strconv.Atoi(f.Visual)
		if err != nil {
			continue
		}
		if months <= 0 {
			a := domain.NewAnomaly(domain.KindDocumentExpired, domain.SeverityCritical,
				fmt.Sprintf("document expired (months remaining: %d)", months))
			a.Details = map[string]any{"months_to_expire": months}
			return []domain.Anomaly{a}
		}
		if months < p.ExpiryWarningMonths {
			a := domain.NewAnomaly(domain.KindDocumentExpiringSoon, domain.SeverityWarning,
				fmt.Sprintf("document expires soon (%d months)", months))
			a.Details = map[string]any{"months_to_expire": months}
			return []domain.Anomaly{a}
		}
	}
	return nil
}

// checkStateMismatch cross-checks the document state against the issuing
// state when both are present.
func checkStateMismatch(tx *domain.Transaction, _ Policy) []domain.Anomaly {
	fields, ok := documentFields(tx)
	if !ok {
		return nil
	}

	var state, issuing string
	for _, f := range fields {
		switch f.Name {
		case domain.FieldState:
			state = f.Visual
		case domain.FieldIssuingState:
			issuing = f.Visual
		}
	}
	if state == "" || issuing == "" || state == issuing {
		return nil
	}

	a := domain.NewAnomaly(domain.KindStateMismatch, domain.SeverityCritical,
		fmt.Sprintf("document state %q and issuing state %q do not match", state, issuing))
	a.Details = map[string]any{
		"state":         state,
		"issuing_state": issuing,
	}
	a.Recommendation = "Possible document tampering or fraud"
	return []domain.Anomaly{a}
}

// checkValidationRules flags every server-side document validation rule that
// reported FAILED.
func checkValidationRules(tx *domain.Transaction, _ Policy) []domain.Anomaly {
	raw, ok := tx.Data[domain.DataValidationRules]
	if !ok {
		return nil
	}
	rules, ok := raw.(map[string]string)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(rules))
	for name, result := range rules {
		if result == "FAILED" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	findings := make([]domain.Anomaly, 0, len(names))
	for _, name := range names {
		a := domain.NewAnomaly(domain.KindValidationRuleFailed, domain.SeverityCritical,
			fmt.Sprintf("document validation rule failed: %s", name))
		a.Details = map[string]any{"rule": name}
		findings = append(findings, a)
	}
	return findings
}

// checkFieldErrorCodes inspects the OCR field error code list. EXPIRED codes
// are critical; a missing barcode is only informational noise on many
// documents and draws a warning.
func checkFieldErrorCodes(tx *domain.Transaction, _ Policy) []domain.Anomaly {
	raw, ok := tx.Data[domain.DataFieldErrorCodes]
	if !ok {
		return nil
	}
	codes, ok := raw.([]string)
	if !ok {
		return nil
	}

	var findings []domain.Anomaly
	for _, code := range codes {
		upper := strings.ToUpper(code)
		switch {
		case strings.Contains(upper, "EXPIRED"):
			a := domain.NewAnomaly(domain.KindDocumentExpired, domain.SeverityCritical,
				"document expired: "+code)
			a.Details = map[string]any{"error_code": code}
			findings = append(findings, a)
		case strings.Contains(upper, "BARCODE") && strings.Contains(upper, "NONE"):
			a := domain.NewAnomaly(domain.KindUnexpectedFailure, domain.SeverityWarning,
				"no barcode detected on document")
			a.Details = map[string]any{"error_code": code}
			findings = append(findings, a)
		}
	}
	return findings
}

// checkFaceMatch fires when the face explicitly failed to match the document
// photo.
func checkFaceMatch(tx *domain.Transaction, _ Policy) []domain.Anomaly {
	matched, ok := dataBool(tx, domain.DataMatchResult)
	if !ok || matched {
		return nil
	}

	a := domain.NewAnomaly(domain.KindFaceMatchFailed, domain.SeverityCritical,
		"face does not match document photo")
	if score, ok := tx.Data[domain.DataMatchScore]; ok {
		a.Details = map[string]any{"match_score": score}
	}
	return []domain.Anomaly{a}
}

// checkUnexpectedResult compares the actual categorical result against the
// expected one. Mismatches here are test-authoring signals, not security
// signals, so the severity stays at WARNING.
func checkUnexpectedResult(tx *domain.Transaction, p Policy) []domain.Anomaly {
	actual, ok := dataString(tx, domain.DataActualResult)
	if !ok || actual == "" {
		return nil
	}
	expected, ok := dataString(tx, domain.DataExpectedResult)
	if !ok || expected == "" {
		expected = p.ExpectedAuthResult
	}
	if expected == "" || actual == expected {
		return nil
	}

	a := domain.NewAnomaly(domain.KindUnexpectedResult, domain.SeverityWarning,
		fmt.Sprintf("result mismatch: expected %q, got %q", expected, actual))
	a.Details = map[string]any{
		"expected": expected,
		"actual":   actual,
	}
	a.Recommendation = "Verify biometric sample quality and threshold configuration"
	return []domain.Anomaly{a}
}

func dataInt(tx *domain.Transaction, key string) (int, bool) {
	switch v := tx.Data[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func dataString(tx *domain.Transaction, key string) (string, bool) {
	s, ok := tx.Data[key].(string)
	return s, ok
}

func dataBool(tx *domain.Transaction, key string) (bool, bool) {
	b, ok := tx.Data[key].(bool)
	return b, ok
}

func documentFields(tx *domain.Transaction) ([]domain.DocumentField, bool) {
	fields, ok := tx.Data[domain.DataDocumentFields].([]domain.DocumentField)
	return fields, ok
}
