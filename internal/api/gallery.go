package api

import (
	"context"
	"net/http"

	"github.com/biometriqa/harness/internal/client"
)

const galleryBasePath = "/onboarding/gallery"

// Gallery covers the face-gallery endpoint family: grouping registrations and
// matching probe faces against them.
type Gallery struct {
	c *client.Client
}

// NewGallery creates the gallery API wrapper.
func NewGallery(c *client.Client) *Gallery {
	return &Gallery{c: c}
}

// Create creates a new gallery.
func (g *Gallery) Create(ctx context.Context, galleryID string) (*client.Outcome, error) {
	return g.c.Post(ctx, galleryBasePath, map[string]any{
		"galleryId": galleryID,
	})
}

// List lists all galleries.
func (g *Gallery) List(ctx context.Context) (*client.Outcome, error) {
	return g.c.Get(ctx, galleryBasePath, nil)
}

// AddRegistration adds an enrolled registration to a gallery.
func (g *Gallery) AddRegistration(ctx context.Context, galleryID, registrationCode string) (*client.Outcome, error) {
	return g.c.Post(ctx, galleryBasePath+"/"+galleryID+"/registration", map[string]any{
		"registrationCode": registrationCode,
	})
}

// RemoveRegistration removes a registration from a gallery.
func (g *Gallery) RemoveRegistration(ctx context.Context, galleryID, registrationCode string) (*client.Outcome, error) {
	return g.c.Do(ctx, client.RequestSpec{
		Method:      http.MethodDelete,
		Path:        galleryBasePath + "/" + galleryID + "/registration/" + registrationCode,
		WantsAPIKey: true,
	})
}

// MatchFace matches a probe face against a gallery. The response carries
// matchResult and per-candidate scores.
func (g *Gallery) MatchFace(ctx context.Context, galleryID string, payload map[string]any) (*client.Outcome, error) {
	return g.c.Post(ctx, galleryBasePath+"/"+galleryID+"/matchFace", payload)
}

// Delete removes a gallery.
func (g *Gallery) Delete(ctx context.Context, galleryID string) (*client.Outcome, error) {
	return g.c.Do(ctx, client.RequestSpec{
		Method:      http.MethodDelete,
		Path:        galleryBasePath + "/" + galleryID,
		WantsAPIKey: true,
	})
}
