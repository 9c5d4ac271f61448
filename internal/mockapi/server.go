// Package mockapi serves canned identity-API responses for local development
// and tests. Individual endpoints can be overridden per scenario.
package mockapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Response is one canned endpoint response.
type Response struct {
	Status int
	Body   map[string]any
}

// Server is a fake identity API. Zero value is not usable; call New.
type Server struct {
	mu        sync.Mutex
	overrides map[string]Response

	tokenExchanges atomic.Int64
	router         chi.Router
}

// New creates a mock server with default happy-path responses.
func New() *Server {
	s := &Server{overrides: make(map[string]Response)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/auth/realms/{realm}/protocol/openid-connect/token", s.handleToken)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/onboarding", func(r chi.Router) {
		r.Post("/enrollment/enroll", s.canned("POST /onboarding/enrollment/enroll", defaultEnroll))
		r.Post("/enrollment/addDevice", s.canned("POST /onboarding/enrollment/addDevice", defaultAddDevice))
		r.Post("/enrollment/addFace", s.canned("POST /onboarding/enrollment/addFace", defaultAddFace))
		r.Post("/enrollment/addDocumentOCR", s.canned("POST /onboarding/enrollment/addDocumentOCR", defaultAddDocument))
		r.Post("/enrollment/cancel", s.canned("POST /onboarding/enrollment/cancel", defaultOK))
		r.Post("/enrollment/addFaceSpoof", s.canned("POST /onboarding/enrollment/addFaceSpoof", defaultOK))
		r.Post("/enrollment/addVoice", s.canned("POST /onboarding/enrollment/addVoice", defaultOK))
		r.Post("/authentication/authenticate", s.canned("POST /onboarding/authentication/authenticate", defaultAuthenticate))
		r.Post("/authentication/verifyFace", s.canned("POST /onboarding/authentication/verifyFace", defaultVerifyFace))
		r.Post("/authentication/verifyDevice", s.canned("POST /onboarding/authentication/verifyDevice", defaultOK))
		r.Post("/authentication/cancel", s.canned("POST /onboarding/authentication/cancel", defaultOK))
		r.Get("/admin/customerConfig", s.canned("GET /onboarding/admin/customerConfig", defaultCustomerConfig))
		r.Put("/admin/customerConfig", s.canned("PUT /onboarding/admin/customerConfig", defaultOK))
		r.Get("/admin/registration/{code}", s.canned("GET /onboarding/admin/registration", defaultOK))
		r.Delete("/admin/registration/{code}", s.canned("DELETE /onboarding/admin/registration", defaultOK))
		r.Post("/gallery", s.canned("POST /onboarding/gallery", defaultOK))
		r.Get("/gallery", s.canned("GET /onboarding/gallery", defaultGalleryList))
		r.Post("/gallery/{id}/registration", s.canned("POST /onboarding/gallery/registration", defaultOK))
		r.Delete("/gallery/{id}/registration/{code}", s.canned("DELETE /onboarding/gallery/registration", defaultOK))
		r.Post("/gallery/{id}/matchFace", s.canned("POST /onboarding/gallery/matchFace", defaultMatchFace))
		r.Delete("/gallery/{id}", s.canned("DELETE /onboarding/gallery", defaultOK))
	})

	s.router = r
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Override replaces the response for one endpoint. The key is
// "METHOD /path", e.g. "POST /onboarding/enrollment/addFace".
func (s *Server) Override(key string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = resp
}

// TokenExchanges reports how many client-credentials exchanges were served.
func (s *Server) TokenExchanges() int {
	return int(s.tokenExchanges.Load())
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostFormValue("grant_type") != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request"})
		return
	}
	s.tokenExchanges.Add(1)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": "mock-token-" + uuid.NewString(),
		"token_type":   "Bearer",
		"expires_in":   300,
		"scope":        "openid",
	})
}

func (s *Server) canned(key string, fallback func() Response) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		resp, ok := s.overrides[key]
		s.mu.Unlock()
		if !ok {
			resp = fallback()
		}
		writeJSON(w, resp.Status, resp.Body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func defaultOK() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{"status": "OK"}}
}

func defaultEnroll() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"transactionId":   uuid.NewString(),
		"enrollmentToken": "enrollment-" + uuid.NewString(),
		"requiredChecks":  []string{"addFace", "addDocument"},
	}}
}

func defaultAddDevice() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"transactionId": uuid.NewString(),
		"deviceStatus":  "Device registered",
	}}
}

func defaultAddFace() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"transactionId": uuid.NewString(),
		"ageEstimationCheck": map[string]any{
			"ageEstimation":             map[string]any{"enabled": true, "minAge": 18, "maxAge": 65},
			"ageFromFaceLivenessServer": 30,
			"result":                    "PASS",
		},
		"faceLivenessResults": map[string]any{
			"video": map[string]any{
				"liveness_result": map[string]any{
					"decision":  "LIVE",
					"score_frr": 0.2162,
				},
			},
		},
		"enrollmentStatus": 0,
	}}
}

func defaultAddDocument() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"transactionId":              uuid.NewString(),
		"registrationCode":           "reg-" + uuid.NewString(),
		"documentVerificationResult": true,
		"matchResult":                true,
		"matchScore":                 91.5,
	}}
}

func defaultAuthenticate() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"transactionId": uuid.NewString(),
		"authToken":     "auth-" + uuid.NewString(),
	}}
}

func defaultVerifyFace() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"transactionId":        uuid.NewString(),
		"authenticationResult": "PASS",
		"score":                0.97,
	}}
}

func defaultGalleryList() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"galleries": []string{"default"},
	}}
}

func defaultMatchFace() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"matchResult": true,
		"matchScore":  88.2,
	}}
}

func defaultCustomerConfig() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"ageEstimation": map[string]any{"enabled": true, "minAge": 18, "maxAge": 65},
		"enrollmentSteps": map[string]any{
			"addFace":     true,
			"addDocument": true,
			"addVoice":    false,
		},
	}}
}
