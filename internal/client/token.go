package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/biometriqa/harness/internal/config"
	"github.com/biometriqa/harness/internal/domain"
)

// tokenResponse is the OAuth token endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// TokenCache holds a single bearer token obtained via the client-credentials
// grant. The token carries no expiry tracking; it is trusted until a 401
// forces Invalidate, after which the next Token call performs a fresh
// exchange.
//
// The mutex is held for the whole fetch, so concurrent callers against a cold
// cache block until the first fetch completes and then reuse its result.
// Exactly one exchange happens per cache miss.
type TokenCache struct {
	cred       config.APIConfig
	httpClient *http.Client
	logger     *slog.Logger
	scope      string

	mu    sync.Mutex
	token string
}

// NewTokenCache creates a token cache for the given credentials.
func NewTokenCache(cred config.APIConfig, httpClient *http.Client, logger *slog.Logger) *TokenCache {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenCache{
		cred:       cred,
		httpClient: httpClient,
		logger:     logger,
		scope:      "openid",
	}
}

// Token returns the cached bearer token, fetching one if the cache is cold.
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.token != "" {
		return tc.token, nil
	}

	token, err := tc.exchange(ctx)
	if err != nil {
		return "", err
	}

	tc.token = token
	return token, nil
}

// Invalidate clears the cached token. Called after a request comes back 401
// so the next call performs a fresh exchange.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.logger.Info("bearer token invalidated")
	tc.token = ""
}

// exchange performs the client-credentials grant. Caller holds tc.mu.
func (tc *TokenCache) exchange(ctx context.Context) (string, error) {
	if !tc.cred.HasOAuth() {
		return "", domain.ErrConfiguration(
			"OAuth not configured: client_id, client_secret, and realm are required")
	}

	endpoint := fmt.Sprintf("%s/auth/realms/%s/protocol/openid-connect/token",
		strings.TrimSuffix(tc.cred.BaseURL, "/"), tc.cred.Realm)

	form := url.Values{
		"client_id":     {tc.cred.ClientID},
		"client_secret": {tc.cred.ClientSecret},
		"scope":         {tc.scope},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", domain.ErrAuth("build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	tc.logger.Info("requesting bearer token",
		slog.String("realm", tc.cred.Realm),
		slog.String("client_id", tc.cred.ClientID),
	)

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return "", domain.ErrAuth("token exchange failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.ErrAuth("read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &domain.Error{
			Kind:       domain.ErrorKindAuth,
			Message:    fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200)),
			StatusCode: resp.StatusCode,
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", domain.ErrAuth("decode token response", err)
	}
	if tok.AccessToken == "" {
		return "", domain.ErrAuth("token response missing access_token", nil)
	}

	tc.logger.Info("bearer token acquired",
		slog.Int("expires_in", tok.ExpiresIn),
		slog.String("scope", tok.Scope),
	)

	return tok.AccessToken, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
