// Package api provides thin typed wrappers over the request executor, one
// method per remote endpoint. No analysis happens here; raw outcomes flow to
// the recorder.
package api

import (
	"context"

	"github.com/biometriqa/harness/internal/client"
)

const enrollmentBasePath = "/onboarding/enrollment"

// Enrollment covers the enrollment endpoint family.
type Enrollment struct {
	c *client.Client
}

// NewEnrollment creates the enrollment API wrapper.
func NewEnrollment(c *client.Client) *Enrollment {
	return &Enrollment{c: c}
}

// Enroll initiates a new enrollment session. The response carries
// enrollmentToken and the list of required checks.
func (e *Enrollment) Enroll(ctx context.Context, payload map[string]any) (*client.Outcome, error) {
	return e.c.Post(ctx, enrollmentBasePath+"/enroll", payload)
}

// AddDevice attaches device information to an enrollment session.
func (e *Enrollment) AddDevice(ctx context.Context, payload map[string]any) (*client.Outcome, error) {
	return e.c.Post(ctx, enrollmentBasePath+"/addDevice", payload)
}

// AddFace submits face liveness frames. The response carries the age
// estimation check and liveness results.
func (e *Enrollment) AddFace(ctx context.Context, payload map[string]any) (*client.Outcome, error) {
	return e.c.Post(ctx, enrollmentBasePath+"/addFace", payload)
}

// AddFaceSpoof submits face spoof-detection data.
func (e *Enrollment) AddFaceSpoof(ctx context.Context, payload map[string]any) (*client.Outcome, error) {
	return e.c.Post(ctx, enrollmentBasePath+"/addFaceSpoof", payload)
}

// AddVoice submits voice biometric data.
func (e *Enrollment) AddVoice(ctx context.Context, payload map[string]any) (*client.Outcome, error) {
	return e.c.Post(ctx, enrollmentBasePath+"/addVoice", payload)
}

// AddDocumentOCR submits identity document images for OCR and verification.
// The response carries registrationCode once enrollment is complete.
func (e *Enrollment) AddDocumentOCR(ctx context.Context, payload map[string]any) (*client.Outcome, error) {
	return e.c.Post(ctx, enrollmentBasePath+"/addDocumentOCR", payload)
}

// Cancel abandons an in-progress enrollment session.
func (e *Enrollment) Cancel(ctx context.Context, enrollmentToken string) (*client.Outcome, error) {
	return e.c.Post(ctx, enrollmentBasePath+"/cancel", map[string]any{
		"enrollmentToken": enrollmentToken,
	})
}
