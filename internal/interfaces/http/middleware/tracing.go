package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request. Requests to the skipped paths
// (health checks and metrics scrapes) are not traced.
func Tracing(serviceName string, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		_, skipped := skip[r.URL.Path]
		return !skipped
	}))
}

// TraceUser tags the request span with the authenticated user and role.
// It must run after JWTAuth.
func TraceUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if userID := GetJWTUserID(c); userID != "" {
				span.SetAttributes(attribute.String("enduser.id", userID))
			}
			if claims := GetJWTClaims(c); claims != nil {
				span.SetAttributes(attribute.String("enduser.role", claims.Role))
			}
		}
		c.Next()
	}
}
