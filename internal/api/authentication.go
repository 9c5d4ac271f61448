package api

import (
	"context"
	"net/http"

	"github.com/biometriqa/harness/internal/client"
)

const authenticationBasePath = "/onboarding/authentication"

// Authentication covers the authentication endpoint family.
type Authentication struct {
	c *client.Client
}

// NewAuthentication creates the authentication API wrapper.
func NewAuthentication(c *client.Client) *Authentication {
	return &Authentication{c: c}
}

// Initiate starts an authentication session for an enrolled user. The
// response carries authToken.
func (a *Authentication) Initiate(ctx context.Context, username string) (*client.Outcome, error) {
	return a.c.Post(ctx, authenticationBasePath+"/authenticate", map[string]any{
		"username": username,
	})
}

// VerifyFace verifies a face sample inside an authentication session. The
// session token travels in the AUTHTOKEN header, matching the remote API.
func (a *Authentication) VerifyFace(ctx context.Context, authToken string, payload map[string]any) (*client.Outcome, error) {
	return a.c.Do(ctx, client.RequestSpec{
		Method:      http.MethodPost,
		Path:        authenticationBasePath + "/verifyFace",
		Body:        payload,
		Headers:     map[string]string{"AUTHTOKEN": authToken},
		WantsAPIKey: true,
	})
}

// VerifyDevice verifies a registered device inside an authentication session.
func (a *Authentication) VerifyDevice(ctx context.Context, authToken string, payload map[string]any) (*client.Outcome, error) {
	return a.c.Do(ctx, client.RequestSpec{
		Method:      http.MethodPost,
		Path:        authenticationBasePath + "/verifyDevice",
		Body:        payload,
		Headers:     map[string]string{"AUTHTOKEN": authToken},
		WantsAPIKey: true,
	})
}

// Cancel abandons an in-progress authentication session.
func (a *Authentication) Cancel(ctx context.Context, authToken string) (*client.Outcome, error) {
	return a.c.Post(ctx, authenticationBasePath+"/cancel", map[string]any{
		"authToken": authToken,
	})
}
