package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/tareas/internal/server"
)

// TracingMiddleware owns the New Relic side of the echo middleware chain.
//
// It holds:
//   - server: config, read for the store driver attribute
//   - nrApp: the running agent, nil when New Relic is disabled
//
// Two layers are installed by the router, in this order:
//  1. NewRelicMiddleware() -> one transaction per request
//  2. EnhanceTracing()     -> tarea attributes and noticed errors
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

// NewTracingMiddleware constructs TracingMiddleware. nrApp may be nil.
func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware returns the nrecho middleware for the agent.
//
// With an agent it starts a transaction per request and stores it in the
// request context, which is what newrelic.FromContext reads further down
// the chain (EnhanceTracing, the typed handlers and the store tracers).
// Without one it returns a pass-through so the chain keeps the same shape
// in every environment.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		// No agent: hand back next untouched.
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing decorates the current transaction.
//
// NewRelicMiddleware must have run first; with no transaction in the
// context this is a no-op.
//
// Attributes added:
//   - http.real_ip, http.user_agent
//   - store.driver (mongo or postgres)
//   - request.id when RequestID set one
//   - tarea.id for the /tareas/:id routes
//   - http.status_code once the handler returned
//
// Errors are noticed through nrpkgerrors so the trace keeps the stack
// attached by pkg/errors.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// nil when the agent is off or the middleware order is wrong.
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			txn.AddAttribute("store.driver", tm.server.Config.Store.Driver)

			// Correlates the trace with the request logs.
			if requestID := GetRequestID(c); requestID != "" {
				txn.AddAttribute("request.id", requestID)
			}

			// Raw path value; it may not be a valid id yet.
			if id := c.Param("id"); id != "" {
				txn.AddAttribute("tarea.id", id)
			}

			err := next(c)

			// Noticing the error does not handle it. It is still returned so
			// GlobalErrorHandler writes the response.
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			// Only known after the handler ran.
			txn.AddAttribute("http.status_code", c.Response().Status)

			return err
		}
	}
}
