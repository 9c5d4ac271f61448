package api

import (
	"context"
	"net/http"

	"github.com/biometriqa/harness/internal/client"
)

const adminBasePath = "/onboarding/admin"

// Admin covers the tenant-configuration endpoint family. The harness reads
// and flips server-side toggles (age estimation ranges, enrollment steps) to
// set up scenarios.
type Admin struct {
	c *client.Client
}

// NewAdmin creates the admin API wrapper.
func NewAdmin(c *client.Client) *Admin {
	return &Admin{c: c}
}

// CustomerConfig fetches the current tenant configuration.
func (a *Admin) CustomerConfig(ctx context.Context) (*client.Outcome, error) {
	return a.c.Get(ctx, adminBasePath+"/customerConfig", nil)
}

// UpdateCustomerConfig replaces the tenant configuration.
func (a *Admin) UpdateCustomerConfig(ctx context.Context, cfg map[string]any) (*client.Outcome, error) {
	return a.c.Do(ctx, client.RequestSpec{
		Method:      http.MethodPut,
		Path:        adminBasePath + "/customerConfig",
		Body:        cfg,
		WantsAPIKey: true,
	})
}

// Registration fetches an enrollment record by registration code.
func (a *Admin) Registration(ctx context.Context, registrationCode string) (*client.Outcome, error) {
	return a.c.Get(ctx, adminBasePath+"/registration/"+registrationCode, nil)
}

// DeleteRegistration removes an enrollment record.
func (a *Admin) DeleteRegistration(ctx context.Context, registrationCode string) (*client.Outcome, error) {
	return a.c.Do(ctx, client.RequestSpec{
		Method:      http.MethodDelete,
		Path:        adminBasePath + "/registration/" + registrationCode,
		WantsAPIKey: true,
	})
}
