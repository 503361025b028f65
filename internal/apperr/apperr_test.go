package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperr.Status(apperr.BadRequest))
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(apperr.TokenMissing))
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(apperr.TokenInvalid))
	assert.Equal(t, http.StatusForbidden, apperr.Status(apperr.AccessDenied))
	assert.Equal(t, http.StatusNotFound, apperr.Status(apperr.NotFound))
	assert.Equal(t, http.StatusConflict, apperr.Status(apperr.Duplicate))
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(apperr.ConfigMissing))
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(apperr.Internal))
}

func TestKindOf_WrappedError(t *testing.T) {
	inner := apperr.New(apperr.AccessDenied, "Accès refusé (owner non autorisé)")
	wrapped := fmt.Errorf("studio context: %w", inner)
	assert.Equal(t, apperr.AccessDenied, apperr.KindOf(wrapped))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, apperr.Internal, apperr.KindOf(errors.New("connection reset")))
}

func TestDetail_TokenErrorsAreGeneric(t *testing.T) {
	assert.Equal(t, "Session invalide ou expirée.", apperr.Detail(apperr.New(apperr.TokenInvalid, "provider said 403")))
	assert.Equal(t, "Session invalide ou expirée.", apperr.Detail(apperr.New(apperr.TokenMissing, "no header")))
}

func TestDetail_InternalSurfacesCause(t *testing.T) {
	err := apperr.Wrap(apperr.Internal, "insert preparation", errors.New("pq: deadlock detected"))
	assert.Equal(t, "insert preparation: pq: deadlock detected", apperr.Detail(err))
}

func TestMissingConfig(t *testing.T) {
	err := apperr.MissingConfig([]string{"DB_HOST", "DB_PASSWORD"})
	require.Equal(t, apperr.ConfigMissing, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}
