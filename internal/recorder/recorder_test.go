package recorder

import (
	"testing"
	"time"

	"github.com/biometriqa/harness/internal/client"
	"github.com/biometriqa/harness/internal/domain"
)

func addFaceOutcome(age float64, result, decision string, enrollmentStatus float64) *client.Outcome {
	return &client.Outcome{
		StatusCode: 200,
		JSON: map[string]any{
			"transactionId": "tx-face",
			"ageEstimationCheck": map[string]any{
				"ageEstimation":             map[string]any{"enabled": true, "minAge": float64(18), "maxAge": float64(65)},
				"ageFromFaceLivenessServer": age,
				"result":                    result,
			},
			"faceLivenessResults": map[string]any{
				"video": map[string]any{
					"liveness_result": map[string]any{
						"decision":  decision,
						"score_frr": 0.2162,
					},
				},
			},
			"enrollmentStatus": enrollmentStatus,
		},
		Elapsed: 120 * time.Millisecond,
	}
}

func TestRecord_FaceShapeBuildsChildren(t *testing.T) {
	reg := NewRegistry()

	tx, err := reg.Record(FamilyFace, addFaceOutcome(30, "PASS", "LIVE", 0))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if tx.Status != domain.StatusSuccess {
		t.Errorf("Status = %v, want SUCCESS", tx.Status)
	}
	if tx.TransactionID != "tx-face" {
		t.Errorf("TransactionID = %q", tx.TransactionID)
	}
	if tx.DurationMS != 120 {
		t.Errorf("DurationMS = %d, want 120", tx.DurationMS)
	}
	if len(tx.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(tx.Children))
	}

	age := tx.Children[0]
	if age.StepName != StepAnalyzeImage {
		t.Errorf("child[0] step = %q", age.StepName)
	}
	if got := age.Data[domain.DataDetectedAge]; got != 30 {
		t.Errorf("detected age = %v, want 30", got)
	}
	if got := age.Data[domain.DataMinAge]; got != 18 {
		t.Errorf("min age = %v, want 18", got)
	}

	live := tx.Children[1]
	if live.StepName != StepCheckLiveness {
		t.Errorf("child[1] step = %q", live.StepName)
	}
	if got := live.Data[domain.DataLivenessDecision]; got != "LIVE" {
		t.Errorf("decision = %v, want LIVE", got)
	}
	if got := live.Data[domain.DataOverallSuccess]; got != true {
		t.Errorf("overall success = %v, want true", got)
	}
}

func TestRecord_FaceStatusDerivation(t *testing.T) {
	tests := []struct {
		name    string
		outcome *client.Outcome
		want    domain.Status
	}{
		{
			name:    "age fail wins",
			outcome: addFaceOutcome(10, "FAIL", "LIVE", 1),
			want:    domain.StatusAgeEstimationFailed,
		},
		{
			name:    "spoof detected",
			outcome: addFaceOutcome(30, "PASS", "SPOOF", 1),
			want:    domain.StatusLivenessFailed,
		},
		{
			name:    "all checks pass",
			outcome: addFaceOutcome(30, "PASS", "LIVE", 0),
			want:    domain.StatusSuccess,
		},
		{
			name:    "server error is a failure",
			outcome: &client.Outcome{StatusCode: 500, Raw: "internal error"},
			want:    domain.StatusFailed,
		},
		{
			name:    "2xx without check blocks is a failure",
			outcome: &client.Outcome{StatusCode: 200, JSON: map[string]any{"transactionId": "tx-1"}},
			want:    domain.StatusFailed,
		},
	}

	reg := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := reg.Record(FamilyFace, tt.outcome)
			if err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			if tx.Status != tt.want {
				t.Errorf("Status = %v, want %v", tx.Status, tt.want)
			}
		})
	}
}

func TestRecord_RequiredFieldDerivation(t *testing.T) {
	reg := NewRegistry()

	t.Run("enrollment with token", func(t *testing.T) {
		tx, err := reg.Record(FamilyEnrollment, &client.Outcome{
			StatusCode: 200,
			JSON: map[string]any{
				"transactionId":   "tx-1",
				"enrollmentToken": "a-token-that-is-definitely-long-enough-to-abbreviate",
				"requiredChecks":  []any{"addFace"},
			},
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if tx.Status != domain.StatusSuccess {
			t.Errorf("Status = %v, want SUCCESS", tx.Status)
		}
		token, _ := tx.Data[domain.DataEnrollmentToken].(string)
		if len(token) != 23 {
			t.Errorf("stored token = %q, want abbreviated to 23 chars", token)
		}
	})

	t.Run("enrollment without token", func(t *testing.T) {
		tx, err := reg.Record(FamilyEnrollment, &client.Outcome{
			StatusCode: 200,
			JSON:       map[string]any{"transactionId": "tx-2"},
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if tx.Status != domain.StatusFailed {
			t.Errorf("Status = %v, want FAILED", tx.Status)
		}
	})

	t.Run("document awaiting more steps is pending", func(t *testing.T) {
		tx, err := reg.Record(FamilyDocumentOCR, &client.Outcome{
			StatusCode: 200,
			JSON:       map[string]any{"transactionId": "tx-3"},
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if tx.Status != domain.StatusPending {
			t.Errorf("Status = %v, want PENDING", tx.Status)
		}
	})
}

func TestRecord_DocumentExtraction(t *testing.T) {
	reg := NewRegistry()

	tx, err := reg.Record(FamilyDocumentOCR, &client.Outcome{
		StatusCode: 200,
		JSON: map[string]any{
			"transactionId":              "tx-doc",
			"registrationCode":           "reg-1",
			"documentVerificationResult": true,
			"matchResult":                true,
			"matchScore":                 91.5,
			"ocrResults": map[string]any{
				"documentsInfo": map[string]any{
					"fieldType": []any{
						map[string]any{
							"name":          "Surname",
							"overallResult": "OK",
							"fieldResult": map[string]any{
								"visual":  "SMITH",
								"barcode": "SMITH",
								"mrz":     "SMITH",
							},
						},
						map[string]any{
							"name":          "Months to expire",
							"overallResult": "OK",
							"fieldResult":   map[string]any{"visual": "3"},
						},
					},
				},
				"documentValidationRulesResult": map[string]any{
					"requestedDocumentValidationRuleResults": map[string]any{
						"DocumentNotExpired": "PASSED",
					},
				},
				"overallResultInfo": map[string]any{
					"fieldErrorCodes": []any{"BARCODE", "NONE"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if tx.Status != domain.StatusSuccess {
		t.Errorf("Status = %v, want SUCCESS", tx.Status)
	}

	fields, ok := tx.Data[domain.DataDocumentFields].([]domain.DocumentField)
	if !ok || len(fields) != 2 {
		t.Fatalf("document fields = %v", tx.Data[domain.DataDocumentFields])
	}
	if fields[0].Name != "Surname" || fields[0].Visual != "SMITH" || fields[0].MRZ != "SMITH" {
		t.Errorf("field[0] = %+v", fields[0])
	}

	rules, ok := tx.Data[domain.DataValidationRules].(map[string]string)
	if !ok || rules["DocumentNotExpired"] != "PASSED" {
		t.Errorf("validation rules = %v", tx.Data[domain.DataValidationRules])
	}

	codes, ok := tx.Data[domain.DataFieldErrorCodes].([]string)
	if !ok || len(codes) != 2 {
		t.Errorf("field error codes = %v", tx.Data[domain.DataFieldErrorCodes])
	}
}

func TestRegistry_UnknownFamily(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Record("no_such_family", &client.Outcome{}); err == nil {
		t.Error("Record() error = nil, want unknown-family error")
	}
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Shape{
		Family: FamilyEnrollment,
		Step:   "Custom Enroll",
		Status: func(*client.Outcome) domain.Status { return domain.StatusPending },
	})

	tx, err := reg.Record(FamilyEnrollment, &client.Outcome{StatusCode: 200})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if tx.StepName != "Custom Enroll" || tx.Status != domain.StatusPending {
		t.Errorf("tx = %q/%v, want custom shape applied", tx.StepName, tx.Status)
	}
}
