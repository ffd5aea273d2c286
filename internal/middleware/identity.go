package middleware

import (
	"context"
	"net/http"
	"strings"
)

const subjectKey contextKey = "subject"

// Identity propagates the authenticated subject set by the edge auth layer.
// Token verification happens upstream; this service only reads the verified
// subject header and carries it as an explicit context value.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimSpace(r.Header.Get("X-Auth-Subject"))
		if sub != "" {
			r = r.WithContext(context.WithValue(r.Context(), subjectKey, sub))
		}
		next.ServeHTTP(w, r)
	})
}

// SubjectFromContext returns the authenticated subject, or "" when absent.
func SubjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(subjectKey).(string); ok {
		return v
	}
	return ""
}
