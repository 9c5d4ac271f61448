package domain

import "time"

// Status represents the recorded outcome of a single API step.
type Status string

const (
	StatusSuccess          Status = "SUCCESS"
	StatusFailed           Status = "FAILED"
	StatusPending          Status = "PENDING"
	StatusDeviceRegistered Status = "DEVICE_REGISTERED"

	// StatusAgeEstimationFailed marks a face step where the server's age
	// estimation check reported FAIL.
	StatusAgeEstimationFailed Status = "AGE_ESTIMATION_FAILED"

	// StatusLivenessFailed marks a face step where the liveness decision
	// was anything other than LIVE.
	StatusLivenessFailed Status = "LIVENESS_FAILED"
)

// Transaction is one node in the recorded call tree. A parent transaction may
// own children representing server-reported sub-checks, e.g. "Add Face" owns
// "Analyze Image" and "Check Liveness". Each child has exactly one parent.
type Transaction struct {
	StepName      string         `json:"step_name"`
	TransactionID string         `json:"transaction_id"`
	Status        Status         `json:"status"`
	Timestamp     time.Time      `json:"timestamp"`
	DurationMS    int64          `json:"duration_ms,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Children      []*Transaction `json:"sub_transactions,omitempty"`
	Anomalies     []Anomaly      `json:"anomalies,omitempty"`
}

// NewTransaction creates a transaction stamped with the current time.
func NewTransaction(stepName, transactionID string, status Status) *Transaction {
	if transactionID == "" {
		transactionID = "N/A"
	}
	return &Transaction{
		StepName:      stepName,
		TransactionID: transactionID,
		Status:        status,
		Timestamp:     time.Now(),
		Data:          make(map[string]any),
	}
}

// AddChild appends a sub-transaction.
func (t *Transaction) AddChild(child *Transaction) {
	t.Children = append(t.Children, child)
}

// AddAnomaly attaches an anomaly to this transaction.
func (t *Transaction) AddAnomaly(a Anomaly) {
	t.Anomalies = append(t.Anomalies, a)
}

// Walk visits t and every descendant in pre-order.
func (t *Transaction) Walk(visit func(*Transaction)) {
	visit(t)
	for _, child := range t.Children {
		child.Walk(visit)
	}
}

// DocumentField holds one OCR-extracted document field with its values as
// read from each physical source. A value is only compared against another
// when both sources are present.
type DocumentField struct {
	Name    string `json:"name"`
	Visual  string `json:"visual,omitempty"`
	Barcode string `json:"barcode,omitempty"`
	MRZ     string `json:"mrz,omitempty"`

	// OverallResult is the server's verdict for the field, e.g. OK or
	// UNDEFINED.
	OverallResult string `json:"overall_result,omitempty"`
}
