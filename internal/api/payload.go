package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
)

// defaultWorkflow is the capture workflow identifier the liveness server
// expects.
const defaultWorkflow = "charlie4"

// FaceFrame builds a single face frame object for liveness payloads.
func FaceFrame(base64Data string, timestampMillis int64, tags ...string) map[string]any {
	if timestampMillis == 0 {
		timestampMillis = time.Now().UnixMilli()
	}
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"data":      base64Data,
		"timestamp": timestampMillis,
		"tags":      tags,
	}
}

// FaceLivenessPayload assembles the faceLivenessData structure from captured
// frames.
func FaceLivenessPayload(username string, frames []map[string]any) map[string]any {
	if username == "" {
		username = "unknown_user"
	}
	return map[string]any{
		"video": map[string]any{
			"meta_data": map[string]any{
				"username": username,
			},
			"workflow_data": map[string]any{
				"workflow": defaultWorkflow,
				"frames":   frames,
			},
		},
	}
}

// EnrollmentPayload assembles an enrollment step payload around the session
// token, attaching whichever biometric blocks are present.
func EnrollmentPayload(enrollmentToken string, faceLiveness, voice, deviceFingerprint map[string]any) map[string]any {
	payload := map[string]any{"enrollmentToken": enrollmentToken}
	if faceLiveness != nil {
		payload["faceLivenessData"] = faceLiveness
	}
	if voice != nil {
		payload["voiceData"] = voice
	}
	if deviceFingerprint != nil {
		payload["deviceFingerprint"] = deviceFingerprint
	}
	return payload
}

// TestIdentity is a disposable identity for exercising enrollment flows.
type TestIdentity struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// NewTestIdentity generates a random identity. Usernames are unique per run
// so repeated scenarios never collide on the remote side.
func NewTestIdentity() (*TestIdentity, error) {
	suffix := uuid.NewString()[:8]
	pw, err := password.Generate(16, 4, 2, false, false)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	return &TestIdentity{
		Username: "qa_user_" + suffix,
		Email:    "qa_" + suffix + "@harness.test",
		Phone:    "+15550000000",
		Password: pw,
	}, nil
}
