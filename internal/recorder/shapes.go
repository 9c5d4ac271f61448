package recorder

import (
	"github.com/biometriqa/harness/internal/client"
	"github.com/biometriqa/harness/internal/domain"
)

// Shape family names for the built-in endpoint descriptors.
const (
	FamilyEnrollment     = "enrollment"
	FamilyFace           = "face"
	FamilyDocumentOCR    = "document_ocr"
	FamilyAuthentication = "authentication"
	FamilyGalleryMatch   = "gallery_match"
	FamilyAdminConfig    = "admin_config"
	FamilyDevice         = "device"
)

// Child step names reported under an addFace response.
const (
	StepAnalyzeImage  = "Analyze Image (Age Detection)"
	StepCheckLiveness = "Check Liveness (Spoof Detection)"
)

func builtinShapes() []Shape {
	return []Shape{
		{
			Family:        FamilyEnrollment,
			Step:          "Enrollment - Enroll",
			RequiredField: "enrollmentToken",
			Extract: func(o *client.Outcome) map[string]any {
				data := map[string]any{
					domain.DataUsername: o.StringAt("username"),
				}
				if token := o.StringAt("enrollmentToken"); token != "" {
					data[domain.DataEnrollmentToken] = abbreviate(token)
				}
				if checks, ok := o.Lookup("requiredChecks"); ok {
					data[domain.DataRequiredChecks] = checks
				}
				return data
			},
		},
		{
			Family: FamilyFace,
			Step:   "Enrollment - Add Face",
			Status: faceStatus,
			Extract: func(o *client.Outcome) map[string]any {
				data := map[string]any{}
				if status, ok := intAt(o, "enrollmentStatus"); ok {
					data[domain.DataOverallSuccess] = status == 0
				}
				return data
			},
			Children: []ChildSpec{
				{Step: StepAnalyzeImage, Build: buildAnalyzeImage},
				{Step: StepCheckLiveness, Build: buildCheckLiveness},
			},
		},
		{
			Family:             FamilyDocumentOCR,
			Step:               "Enrollment - Add Document OCR",
			RequiredField:      "registrationCode",
			PendingWhenMissing: true,
			Extract:            extractDocument,
		},
		{
			Family: FamilyAuthentication,
			Step:   "Authentication",
			Status: func(o *client.Outcome) domain.Status {
				if o.StringAt("authenticationResult") == "PASS" {
					return domain.StatusSuccess
				}
				return domain.StatusFailed
			},
			Extract: func(o *client.Outcome) map[string]any {
				data := map[string]any{
					domain.DataActualResult: o.StringAt("authenticationResult"),
					domain.DataUsername:     o.StringAt("username"),
				}
				if score, ok := floatAt(o, "score"); ok {
					data[domain.DataMatchScore] = score
				}
				return data
			},
		},
		{
			Family: FamilyGalleryMatch,
			Step:   "Gallery - Match Face",
			Status: func(o *client.Outcome) domain.Status {
				if matched, ok := boolAt(o, "matchResult"); ok && matched {
					return domain.StatusSuccess
				}
				return domain.StatusFailed
			},
			Extract: func(o *client.Outcome) map[string]any {
				data := map[string]any{}
				if matched, ok := boolAt(o, "matchResult"); ok {
					data[domain.DataMatchResult] = matched
				}
				if score, ok := floatAt(o, "matchScore"); ok {
					data[domain.DataMatchScore] = score
				}
				return data
			},
		},
		{
			Family: FamilyAdminConfig,
			Step:   "Admin - Customer Config",
		},
		{
			Family: FamilyDevice,
			Step:   "Enrollment - Add Device",
			Status: func(o *client.Outcome) domain.Status {
				if o.OK() {
					return domain.StatusDeviceRegistered
				}
				return domain.StatusFailed
			},
		},
	}
}

// faceStatus derives the main addFace status from the sub-check results. An
// error response, or one carrying neither check block, is a plain failure.
func faceStatus(o *client.Outcome) domain.Status {
	if !o.OK() {
		return domain.StatusFailed
	}
	_, hasAge := o.Lookup("ageEstimationCheck")
	_, hasLiveness := o.Lookup("faceLivenessResults")
	if !hasAge && !hasLiveness {
		return domain.StatusFailed
	}
	if o.StringAt("ageEstimationCheck", "result") == "FAIL" {
		return domain.StatusAgeEstimationFailed
	}
	if decision := o.StringAt("faceLivenessResults", "video", "liveness_result", "decision"); decision != "" && decision != "LIVE" {
		return domain.StatusLivenessFailed
	}
	return domain.StatusSuccess
}

// buildAnalyzeImage lifts the age estimation check into a child transaction.
func buildAnalyzeImage(o *client.Outcome) (*domain.Transaction, bool) {
	if _, ok := o.Lookup("ageEstimationCheck"); !ok {
		return nil, false
	}

	age, hasAge := intAt(o, "ageEstimationCheck", "ageFromFaceLivenessServer")

	status := domain.StatusFailed
	if hasAge {
		status = domain.StatusSuccess
	}
	tx := domain.NewTransaction(StepAnalyzeImage, "", status)

	if hasAge {
		tx.Data[domain.DataDetectedAge] = age
	}
	if min, ok := intAt(o, "ageEstimationCheck", "ageEstimation", "minAge"); ok {
		tx.Data[domain.DataMinAge] = min
	}
	if max, ok := intAt(o, "ageEstimationCheck", "ageEstimation", "maxAge"); ok {
		tx.Data[domain.DataMaxAge] = max
	}
	if result := o.StringAt("ageEstimationCheck", "result"); result != "" {
		tx.Data[domain.DataAgeResult] = result
	}

	return tx, true
}

// buildCheckLiveness lifts the liveness decision into a child transaction.
// The parent's overall success flag rides along so the liveness-bypass rule
// can compare the two.
func buildCheckLiveness(o *client.Outcome) (*domain.Transaction, bool) {
	if _, ok := o.Lookup("faceLivenessResults"); !ok {
		return nil, false
	}

	decision := o.StringAt("faceLivenessResults", "video", "liveness_result", "decision")

	status := domain.StatusLivenessFailed
	if decision == "LIVE" {
		status = domain.StatusSuccess
	}
	tx := domain.NewTransaction(StepCheckLiveness, "", status)

	if decision != "" {
		tx.Data[domain.DataLivenessDecision] = decision
	}
	if score, ok := floatAt(o, "faceLivenessResults", "video", "liveness_result", "score_frr"); ok {
		tx.Data[domain.DataLivenessScore] = score
	}
	if enrollStatus, ok := intAt(o, "enrollmentStatus"); ok {
		tx.Data[domain.DataOverallSuccess] = enrollStatus == 0
	}

	return tx, true
}

// extractDocument flattens a document OCR response into the typed fields the
// analysis rules consume.
func extractDocument(o *client.Outcome) map[string]any {
	data := map[string]any{}

	if code := o.StringAt("registrationCode"); code != "" {
		data[domain.DataRegistrationCode] = code
	}
	if verified, ok := boolAt(o, "documentVerificationResult"); ok {
		data[domain.DataDocumentVerified] = verified
	}
	if matched, ok := boolAt(o, "matchResult"); ok {
		data[domain.DataMatchResult] = matched
	}
	if score, ok := floatAt(o, "matchScore"); ok {
		data[domain.DataMatchScore] = score
	}

	if fields := documentFields(o); len(fields) > 0 {
		data[domain.DataDocumentFields] = fields
	}
	if rules := validationRules(o); len(rules) > 0 {
		data[domain.DataValidationRules] = rules
	}
	if codes := fieldErrorCodes(o); len(codes) > 0 {
		data[domain.DataFieldErrorCodes] = codes
	}

	return data
}

func documentFields(o *client.Outcome) []domain.DocumentField {
	raw, ok := o.Lookup("ocrResults", "documentsInfo", "fieldType")
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	fields := make([]domain.DocumentField, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		field := domain.DocumentField{Name: stringField(obj, "name")}
		field.OverallResult = stringField(obj, "overallResult")
		if result, ok := obj["fieldResult"].(map[string]any); ok {
			field.Visual = stringField(result, "visual")
			field.Barcode = stringField(result, "barcode")
			field.MRZ = stringField(result, "mrz")
		}
		fields = append(fields, field)
	}
	return fields
}

func validationRules(o *client.Outcome) map[string]string {
	raw, ok := o.Lookup("ocrResults", "documentValidationRulesResult", "requestedDocumentValidationRuleResults")
	if !ok {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	rules := make(map[string]string, len(obj))
	for name, result := range obj {
		if s, ok := result.(string); ok {
			rules[name] = s
		}
	}
	return rules
}

func fieldErrorCodes(o *client.Outcome) []string {
	raw, ok := o.Lookup("ocrResults", "overallResultInfo", "fieldErrorCodes")
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	codes := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			codes = append(codes, s)
		}
	}
	return codes
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// intAt reads a JSON number as an int.
func intAt(o *client.Outcome, keys ...string) (int, bool) {
	f, ok := floatAt(o, keys...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func floatAt(o *client.Outcome, keys ...string) (float64, bool) {
	v, ok := o.Lookup(keys...)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func boolAt(o *client.Outcome, keys ...string) (bool, bool) {
	v, ok := o.Lookup(keys...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// abbreviate keeps tokens readable in report data without leaking the full
// credential.
func abbreviate(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
