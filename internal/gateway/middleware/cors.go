package middleware

import (
	"net/http"
	"strings"
)

const (
	allowMethods  = "POST, GET, OPTIONS"
	allowHeaders  = "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID, Connect-Protocol-Version, Connect-Timeout-Ms, X-User-Agent"
	exposeHeaders = "X-Request-ID, Connect-Content-Encoding, Connect-Accept-Encoding"
)

// CORS answers preflight requests and decorates responses for the given
// origin policy. A "*" entry admits any origin without credentials; an
// explicit list echoes the matching origin and, if allowCredentials is set,
// allows credentials for it.
func CORS(allowOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	wildcard := false
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			h := w.Header()
			if origin != "" {
				if _, ok := allowed[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
					if allowCredentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
				} else if wildcard {
					h.Set("Access-Control-Allow-Origin", "*")
				}
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
