package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillboard/skillboard/internal/apperr"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	switch token {
	case "":
		return "", apperr.New(apperr.TokenMissing, "token requis")
	case "good":
		return "claire@acme.fr", nil
	default:
		return "", apperr.New(apperr.TokenInvalid, "session invalide")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"absent", "", ""},
		{"standard", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(r))
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	var got Identity
	handler := RequireIdentity(fakeVerifier{})(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = IdentityFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token reaches handler", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		handler(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "claire@acme.fr", got.Email)
		assert.Equal(t, "good", got.Token)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Session invalide ou expirée."}`, rec.Body.String())
	})

	t.Run("bad token is 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		handler(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	origins := []string{"https://skills.skillboard.fr"}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS(origins)(next)

	t.Run("allowed origin echoed with credentials", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.Header.Set("Origin", "https://skills.skillboard.fr")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, "https://skills.skillboard.fr", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin gets no allow header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight is 204", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/preparation", nil)
		r.Header.Set("Origin", "https://skills.skillboard.fr")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("wildcard disables credentials", func(t *testing.T) {
		wild := CORS([]string{"*"})(next)
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()
		wild.ServeHTTP(rec, r)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}
