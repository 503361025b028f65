package middleware

import "net/http"

const (
	corsMethods = "GET, POST, OPTIONS, HEAD"
	corsHeaders = "Authorization, Content-Type"
)

// CORS applies the browser cross-origin policy for the two portal frontends.
// Origins is an allow-list of exact origins; a literal "*" entry allows any
// origin but disables credentials, since browsers reject the combination.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Add("Vary", "Origin")
				switch {
				case wildcard:
					w.Header().Set("Access-Control-Allow-Origin", "*")
				default:
					if _, ok := allowed[origin]; ok {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Set("Access-Control-Allow-Credentials", "true")
					}
				}
				w.Header().Set("Access-Control-Allow-Methods", corsMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
