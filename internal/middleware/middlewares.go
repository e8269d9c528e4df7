package middleware

import (
	"github.com/deppfellow/tareas/internal/server"
)

// Middlewares groups all middleware components used by the HTTP server so
// they are built once and shared by the router.
type Middlewares struct {
	Global          *GlobalMiddlewares
	ContextEnhancer *ContextEnhancer
	Tracing         *TracingMiddleware
	Response        *ResponseMiddleware
}

// NewMiddlewares constructs all middleware components from the application
// container. Tracing degrades to a no-op when New Relic is not configured.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, s.LoggerService.GetApplication()),
		Response:        NewResponseMiddleware(s),
	}
}
