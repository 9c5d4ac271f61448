package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestServer_TokenEndpoint(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	form := url.Values{
		"client_id":     {"qa-client"},
		"client_secret": {"secret"},
		"grant_type":    {"client_credentials"},
		"scope":         {"openid"},
	}
	resp, err := http.Post(
		srv.URL+"/auth/realms/qa/protocol/openid-connect/token",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if token, _ := body["access_token"].(string); token == "" {
		t.Error("access_token missing")
	}
	if s.TokenExchanges() != 1 {
		t.Errorf("TokenExchanges() = %d, want 1", s.TokenExchanges())
	}
}

func TestServer_TokenEndpointRejectsWrongGrant(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(
		srv.URL+"/auth/realms/qa/protocol/openid-connect/token",
		"application/x-www-form-urlencoded",
		strings.NewReader("grant_type=password"),
	)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if s.TokenExchanges() != 0 {
		t.Errorf("TokenExchanges() = %d, want 0", s.TokenExchanges())
	}
}

func TestServer_Override(t *testing.T) {
	s := New()
	s.Override("POST /onboarding/enrollment/enroll", Response{
		Status: http.StatusConflict,
		Body:   map[string]any{"error": "already enrolled"},
	})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/onboarding/enrollment/enroll", "application/json",
		strings.NewReader(`{"username":"u"}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if body["error"] != "already enrolled" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestServer_DefaultAddFaceShape(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/onboarding/enrollment/addFace", "application/json",
		strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	check, ok := body["ageEstimationCheck"].(map[string]any)
	if !ok {
		t.Fatalf("ageEstimationCheck missing: %v", body)
	}
	if check["result"] != "PASS" {
		t.Errorf("result = %v, want PASS", check["result"])
	}
	if _, ok := body["faceLivenessResults"]; !ok {
		t.Error("faceLivenessResults missing")
	}
}
