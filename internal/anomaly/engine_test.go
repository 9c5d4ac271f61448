package anomaly

import (
	"testing"

	"github.com/biometriqa/harness/internal/domain"
)

func testPolicy() Policy {
	return Policy{MinAge: 18, MaxAge: 65, ExpiryWarningMonths: 6}
}

func node(data map[string]any) *domain.Transaction {
	tx := domain.NewTransaction("test step", "tx-1", domain.StatusSuccess)
	for k, v := range data {
		tx.Data[k] = v
	}
	return tx
}

func TestAgeVerificationBypass(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		data   map[string]any
		want   int
	}{
		{
			name:   "underage passed",
			policy: testPolicy(),
			data: map[string]any{
				domain.DataDetectedAge: 10,
				domain.DataMinAge:      18,
				domain.DataMaxAge:      65,
				domain.DataAgeResult:   "PASS",
			},
			want: 1,
		},
		{
			name:   "underage correctly rejected",
			policy: testPolicy(),
			data: map[string]any{
				domain.DataDetectedAge: 10,
				domain.DataMinAge:      18,
				domain.DataMaxAge:      65,
				domain.DataAgeResult:   "FAIL",
			},
			want: 0,
		},
		{
			name:   "age in range",
			policy: testPolicy(),
			data: map[string]any{
				domain.DataDetectedAge: 30,
				domain.DataMinAge:      18,
				domain.DataMaxAge:      65,
				domain.DataAgeResult:   "PASS",
			},
			want: 0,
		},
		{
			name:   "no detected age is insufficient data",
			policy: testPolicy(),
			data: map[string]any{
				domain.DataMinAge: 18,
				domain.DataMaxAge: 65,
			},
			want: 0,
		},
		{
			name:   "tolerance widens the range",
			policy: Policy{MinAge: 18, MaxAge: 65, MinTolerance: 2},
			data: map[string]any{
				domain.DataDetectedAge: 16,
				domain.DataMinAge:      18,
				domain.DataMaxAge:      65,
				domain.DataAgeResult:   "PASS",
			},
			want: 0,
		},
		{
			name:   "policy bounds used when server omits them",
			policy: testPolicy(),
			data: map[string]any{
				domain.DataDetectedAge: 10,
				domain.DataAgeResult:   "PASS",
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkAgeVerificationBypass(node(tt.data), tt.policy)
			if len(got) != tt.want {
				t.Fatalf("findings = %d, want %d: %v", len(got), tt.want, got)
			}
			if tt.want == 1 {
				if got[0].Kind != domain.KindAgeVerificationBypass {
					t.Errorf("kind = %v", got[0].Kind)
				}
				if got[0].Severity != domain.SeverityCritical {
					t.Errorf("severity = %v, want CRITICAL", got[0].Severity)
				}
			}
		})
	}
}

func TestLivenessBypass(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want int
	}{
		{
			name: "spoof accepted",
			data: map[string]any{
				domain.DataLivenessDecision: "SPOOF",
				domain.DataOverallSuccess:   true,
			},
			want: 1,
		},
		{
			name: "spoof correctly rejected",
			data: map[string]any{
				domain.DataLivenessDecision: "SPOOF",
				domain.DataOverallSuccess:   false,
			},
			want: 0,
		},
		{
			name: "live face accepted",
			data: map[string]any{
				domain.DataLivenessDecision: "LIVE",
				domain.DataOverallSuccess:   true,
			},
			want: 0,
		},
		{
			name: "no overall flag is insufficient data",
			data: map[string]any{
				domain.DataLivenessDecision: "SPOOF",
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkLivenessBypass(node(tt.data), testPolicy())
			if len(got) != tt.want {
				t.Fatalf("findings = %d, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestFieldMismatch(t *testing.T) {
	tests := []struct {
		name   string
		fields []domain.DocumentField
		want   int
	}{
		{
			name: "all sources agree",
			fields: []domain.DocumentField{
				{Name: "Surname", Visual: "SMITH", Barcode: "SMITH", MRZ: "SMITH"},
			},
			want: 0,
		},
		{
			name: "barcode disagrees",
			fields: []domain.DocumentField{
				{Name: "Surname", Visual: "SMITH", Barcode: "SMYTH", MRZ: "SMITH"},
			},
			want: 1,
		},
		{
			name: "barcode and mrz both disagree",
			fields: []domain.DocumentField{
				{Name: "Surname", Visual: "SMITH", Barcode: "SMYTH", MRZ: "SMYTH"},
			},
			want: 2,
		},
		{
			name: "missing source is not a mismatch",
			fields: []domain.DocumentField{
				{Name: "Surname", Visual: "SMITH", Barcode: "", MRZ: ""},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := node(map[string]any{domain.DataDocumentFields: tt.fields})
			got := checkFieldMismatch(tx, testPolicy())
			if len(got) != tt.want {
				t.Fatalf("findings = %d, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestDocumentExpiry(t *testing.T) {
	tests := []struct {
		name     string
		months   string
		want     int
		severity domain.Severity
	}{
		{name: "expired", months: "0", want: 1, severity: domain.SeverityCritical},
		{name: "expired negative", months: "-2", want: 1, severity: domain.SeverityCritical},
		{name: "expiring soon", months: "3", want: 1, severity: domain.SeverityWarning},
		{name: "at the warning boundary", months: "6", want: 0},
		{name: "well within validity", months: "24", want: 0},
		{name: "unparseable value skipped", months: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := node(map[string]any{
				domain.DataDocumentFields: []domain.DocumentField{
					{Name: domain.FieldMonthsToExpire, Visual: tt.months},
				},
			})
			got := checkDocumentExpiry(tx, testPolicy())
			if len(got) != tt.want {
				t.Fatalf("findings = %d, want %d: %v", len(got), tt.want, got)
			}
			if tt.want == 1 && got[0].Severity != tt.severity {
				t.Errorf("severity = %v, want %v", got[0].Severity, tt.severity)
			}
		})
	}
}

func TestStateMismatch(t *testing.T) {
	tests := []struct {
		name           string
		state, issuing string
		want           int
	}{
		{name: "matching states", state: "CA", issuing: "CA", want: 0},
		{name: "differing states", state: "CA", issuing: "NY", want: 1},
		{name: "missing issuing state", state: "CA", issuing: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := node(map[string]any{
				domain.DataDocumentFields: []domain.DocumentField{
					{Name: domain.FieldState, Visual: tt.state},
					{Name: domain.FieldIssuingState, Visual: tt.issuing},
				},
			})
			got := checkStateMismatch(tx, testPolicy())
			if len(got) != tt.want {
				t.Fatalf("findings = %d, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestValidationRules(t *testing.T) {
	tx := node(map[string]any{
		domain.DataValidationRules: map[string]string{
			"ZDocumentNotExpired": "FAILED",
			"AgeCheck":            "FAILED",
			"PhotoPresent":        "PASSED",
		},
	})

	got := checkValidationRules(tx, testPolicy())
	if len(got) != 2 {
		t.Fatalf("findings = %d, want 2: %v", len(got), got)
	}
	// Failed rule names are reported in sorted order for stable output.
	if got[0].Details["rule"] != "AgeCheck" || got[1].Details["rule"] != "ZDocumentNotExpired" {
		t.Errorf("rule order = %v, %v", got[0].Details["rule"], got[1].Details["rule"])
	}
}

func TestFieldErrorCodes(t *testing.T) {
	tx := node(map[string]any{
		domain.DataFieldErrorCodes: []string{"DOCUMENT_EXPIRED", "BARCODE_NONE", "GLARE"},
	})

	got := checkFieldErrorCodes(tx, testPolicy())
	if len(got) != 2 {
		t.Fatalf("findings = %d, want 2: %v", len(got), got)
	}
	if got[0].Severity != domain.SeverityCritical {
		t.Errorf("expired severity = %v, want CRITICAL", got[0].Severity)
	}
	if got[1].Severity != domain.SeverityWarning {
		t.Errorf("barcode severity = %v, want WARNING", got[1].Severity)
	}
}

func TestFaceMatch(t *testing.T) {
	t.Run("mismatch flagged", func(t *testing.T) {
		tx := node(map[string]any{
			domain.DataMatchResult: false,
			domain.DataMatchScore:  12.5,
		})
		got := checkFaceMatch(tx, testPolicy())
		if len(got) != 1 {
			t.Fatalf("findings = %d, want 1", len(got))
		}
		if got[0].Details["match_score"] != 12.5 {
			t.Errorf("match_score detail = %v", got[0].Details["match_score"])
		}
	})

	t.Run("match is clean", func(t *testing.T) {
		tx := node(map[string]any{domain.DataMatchResult: true})
		if got := checkFaceMatch(tx, testPolicy()); len(got) != 0 {
			t.Errorf("findings = %d, want 0", len(got))
		}
	})
}

func TestUnexpectedResult(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]any
		policy Policy
		want   int
	}{
		{
			name: "expected from transaction data",
			data: map[string]any{
				domain.DataActualResult:   "FAIL",
				domain.DataExpectedResult: "PASS",
			},
			policy: testPolicy(),
			want:   1,
		},
		{
			name: "expected from policy fallback",
			data: map[string]any{
				domain.DataActualResult: "FAIL",
			},
			policy: Policy{ExpectedAuthResult: "PASS"},
			want:   1,
		},
		{
			name: "matching result",
			data: map[string]any{
				domain.DataActualResult:   "PASS",
				domain.DataExpectedResult: "PASS",
			},
			policy: testPolicy(),
			want:   0,
		},
		{
			name: "no expectation declared",
			data: map[string]any{
				domain.DataActualResult: "FAIL",
			},
			policy: testPolicy(),
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkUnexpectedResult(node(tt.data), tt.policy)
			if len(got) != tt.want {
				t.Fatalf("findings = %d, want %d: %v", len(got), tt.want, got)
			}
			if tt.want == 1 && got[0].Severity != domain.SeverityWarning {
				t.Errorf("severity = %v, want WARNING", got[0].Severity)
			}
		})
	}
}

func TestEngine_EvaluateWalksTreeInOrder(t *testing.T) {
	root := domain.NewTransaction("Enrollment - Add Face", "tx-1", domain.StatusSuccess)

	age := domain.NewTransaction("Analyze Image (Age Detection)", "", domain.StatusSuccess)
	age.Data[domain.DataDetectedAge] = 10
	age.Data[domain.DataMinAge] = 18
	age.Data[domain.DataMaxAge] = 65
	age.Data[domain.DataAgeResult] = "PASS"
	root.AddChild(age)

	live := domain.NewTransaction("Check Liveness (Spoof Detection)", "", domain.StatusLivenessFailed)
	live.Data[domain.DataLivenessDecision] = "SPOOF"
	live.Data[domain.DataOverallSuccess] = true
	root.AddChild(live)

	engine := New(nil)
	findings := engine.Evaluate(root, testPolicy())

	if len(findings) != 2 {
		t.Fatalf("findings = %d, want 2: %v", len(findings), findings)
	}
	// Pre-order node walk: the age child precedes the liveness child.
	if findings[0].Kind != domain.KindAgeVerificationBypass {
		t.Errorf("findings[0].Kind = %v", findings[0].Kind)
	}
	if findings[1].Kind != domain.KindLivenessBypass {
		t.Errorf("findings[1].Kind = %v", findings[1].Kind)
	}

	// Findings are also attached to the node that produced them.
	if len(age.Anomalies) != 1 {
		t.Errorf("age node anomalies = %d, want 1", len(age.Anomalies))
	}
	if len(live.Anomalies) != 1 {
		t.Errorf("liveness node anomalies = %d, want 1", len(live.Anomalies))
	}
	if len(root.Anomalies) != 0 {
		t.Errorf("root anomalies = %d, want 0", len(root.Anomalies))
	}
}

func TestPolicy_AgeInRange(t *testing.T) {
	p := Policy{MinTolerance: 1, MaxTolerance: 2}

	tests := []struct {
		age  int
		want bool
	}{
		{age: 16, want: false},
		{age: 17, want: true},
		{age: 40, want: true},
		{age: 67, want: true},
		{age: 68, want: false},
	}

	for _, tt := range tests {
		if got := p.AgeInRange(tt.age, 18, 65); got != tt.want {
			t.Errorf("AgeInRange(%d, 18, 65) = %v, want %v", tt.age, got, tt.want)
		}
	}
}
