// Package middleware provides HTTP middleware for the Pixelsmith API.
package middleware

import (
	"mime"
	"net/http"
	"strings"
)

// RequireJSON returns middleware that rejects bodies with a
// non-JSON Content-Type on methods that carry a payload.
func RequireJSON() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				ct := r.Header.Get("Content-Type")
				if ct != "" && !isJSONContentType(ct) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnsupportedMediaType)
					_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isJSONContentType reports whether a Content-Type header value is JSON,
// ignoring parameters like charset.
func isJSONContentType(value string) bool {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
