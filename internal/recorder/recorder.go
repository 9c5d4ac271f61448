// Package recorder converts raw API outcomes into typed transaction trees.
// Endpoint families are described by Shape descriptors; adding a new endpoint
// means registering a descriptor, not changing recorder logic.
package recorder

import (
	"fmt"

	"github.com/biometriqa/harness/internal/client"
	"github.com/biometriqa/harness/internal/domain"
)

// Shape describes how one endpoint family's responses map onto a
// transaction: which field marks success, which response values land in
// Data, and which sub-objects become child transactions.
type Shape struct {
	// Family is the registry key, e.g. "enrollment" or "face".
	Family string

	// Step is the human-readable step name recorded on the transaction.
	Step string

	// RequiredField is the top-level response field whose non-empty value
	// derives StatusSuccess. Ignored when Status is set.
	RequiredField string

	// PendingWhenMissing records StatusPending instead of StatusFailed
	// when RequiredField is absent, e.g. document OCR awaiting more steps.
	PendingWhenMissing bool

	// Status overrides the required-field derivation entirely.
	Status func(o *client.Outcome) domain.Status

	// Extract maps response fields into Transaction.Data.
	Extract func(o *client.Outcome) map[string]any

	// Children build sub-transactions from server-reported sub-checks. A
	// child reporting ok=false is skipped.
	Children []ChildSpec
}

// ChildSpec describes one server-reported sub-check.
type ChildSpec struct {
	Step  string
	Build func(o *client.Outcome) (*domain.Transaction, bool)
}

// Registry holds the registered endpoint shapes.
type Registry struct {
	shapes map[string]Shape
}

// NewRegistry creates a registry pre-populated with the built-in shapes.
func NewRegistry() *Registry {
	r := &Registry{shapes: make(map[string]Shape)}
	for _, s := range builtinShapes() {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a shape by family name.
func (r *Registry) Register(s Shape) {
	r.shapes[s.Family] = s
}

// Shape returns the shape registered for a family.
func (r *Registry) Shape(family string) (Shape, error) {
	s, ok := r.shapes[family]
	if !ok {
		return Shape{}, fmt.Errorf("no shape registered for family %q", family)
	}
	return s, nil
}

// Record converts one outcome into a transaction using the family's shape.
func (r *Registry) Record(family string, o *client.Outcome) (*domain.Transaction, error) {
	shape, err := r.Shape(family)
	if err != nil {
		return nil, err
	}
	return Record(shape, o), nil
}

// Record converts one outcome into a transaction tree per the shape. The
// status is always set before any anomaly rule sees the transaction.
func Record(shape Shape, o *client.Outcome) *domain.Transaction {
	tx := domain.NewTransaction(shape.Step, o.StringAt("transactionId"), deriveStatus(shape, o))
	tx.DurationMS = o.Elapsed.Milliseconds()

	if shape.Extract != nil {
		for key, value := range shape.Extract(o) {
			tx.Data[key] = value
		}
	}

	for _, child := range shape.Children {
		if sub, ok := child.Build(o); ok {
			tx.AddChild(sub)
		}
	}

	return tx
}

func deriveStatus(shape Shape, o *client.Outcome) domain.Status {
	if shape.Status != nil {
		return shape.Status(o)
	}
	if shape.RequiredField != "" {
		if o.StringAt(shape.RequiredField) != "" {
			return domain.StatusSuccess
		}
		if shape.PendingWhenMissing {
			return domain.StatusPending
		}
		return domain.StatusFailed
	}
	if o.OK() {
		return domain.StatusSuccess
	}
	return domain.StatusFailed
}
