// Package identity maps opaque bearer tokens to authenticated emails by
// calling the portal's external identity provider. Two independent verifier
// instances exist, one per portal; they are functionally identical.
package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/config"
)

// providerTimeout bounds every call to the identity provider.
const providerTimeout = 15 * time.Second

// Verifier validates bearer tokens against one portal's provider.
type Verifier struct {
	portal  string
	baseURL string
	anonKey string
	missing []string
	client  *http.Client
}

// NewVerifier builds a verifier from one portal's auth configuration.
// Missing configuration is detected here but only reported at first call.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		portal:  cfg.Portal,
		baseURL: cfg.BaseURL,
		anonKey: cfg.AnonKey,
		missing: cfg.Missing(),
		client:  &http.Client{Timeout: providerTimeout},
	}
}

// Portal returns the portal this verifier authenticates for.
func (v *Verifier) Portal() string { return v.portal }

// Verify resolves a raw bearer token to a lowercased email address.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.New(apperr.TokenMissing, "jeton d'authentification absent")
	}
	if len(v.missing) > 0 {
		return "", apperr.MissingConfig(v.missing)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", http.NoBody)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "construction requête provider", err)
	}
	req.Header.Set("apikey", v.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "appel au provider d'identité", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", apperr.Newf(apperr.TokenInvalid, "provider a répondu %d", resp.StatusCode)
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperr.Wrap(apperr.TokenInvalid, "réponse provider illisible", err)
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return "", apperr.New(apperr.TokenInvalid, "réponse provider sans email")
	}
	return email, nil
}
