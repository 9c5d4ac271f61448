package domain

// Keys under Transaction.Data written by the recorder and read by the
// analysis rules. Rules tolerate an absent key: insufficient data means no
// finding, never a false positive.
const (
	DataUsername        = "username"
	DataEnrollmentToken = "enrollment_token"
	DataRequiredChecks  = "required_checks"

	DataDetectedAge = "detected_age"
	DataMinAge      = "min_age"
	DataMaxAge      = "max_age"
	DataAgeResult   = "age_result"

	DataLivenessDecision = "liveness_decision"
	DataLivenessScore    = "liveness_score"

	// DataOverallSuccess marks whether the server treated the enclosing
	// step as successful, regardless of the sub-check outcomes.
	DataOverallSuccess = "overall_success"

	DataExpectedResult = "expected_result"
	DataActualResult   = "actual_result"

	DataRegistrationCode = "registration_code"
	DataDocumentVerified = "document_verified"
	DataDocumentFields   = "document_fields"
	DataValidationRules  = "validation_rules"
	DataFieldErrorCodes  = "field_error_codes"

	DataMatchResult = "match_result"
	DataMatchScore  = "match_score"
)

// Well-known document field names used by cross-field rules.
const (
	FieldMonthsToExpire = "Months to expire"
	FieldState          = "State"
	FieldIssuingState   = "Issuing State"
)
