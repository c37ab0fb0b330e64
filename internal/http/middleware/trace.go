package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Trace instruments every request with a server span on the global tracer
// provider; a no-op when tracing was never initialized.
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
