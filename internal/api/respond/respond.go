// Package respond writes the plain-JSON bodies of the public API and maps
// internal error kinds to HTTP status codes.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/skillboard/skillboard/internal/apperr"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as {"detail": ...} with the status of its kind.
func Error(w http.ResponseWriter, err error) {
	JSON(w, apperr.Status(apperr.KindOf(err)), map[string]string{
		"detail": apperr.Detail(err),
	})
}
