// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/tareas/internal/handler"
	"github.com/deppfellow/tareas/internal/middleware"
	"github.com/deppfellow/tareas/internal/server"
)

// NewRouter builds the echo instance serving the whole API.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Order matters: the request id and the New Relic transaction must exist
	// before the logger is enriched and the request is logged.
	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
	)

	registerSystemRoutes(router, h)
	registerTareaRoutes(router, h, middlewares)

	return router
}

func registerTareaRoutes(r *echo.Echo, h *handler.Handlers, mw *middleware.Middlewares) {
	tareas := r.Group("/tareas")

	collectionHeaders := mw.Response.Headers(middleware.CollectionMethods...)
	latestHeaders := mw.Response.Headers(middleware.LatestMethods...)
	itemHeaders := mw.Response.Headers(middleware.ItemMethods...)

	acceptJSON := mw.Response.AcceptJSON()
	requireJSON := mw.Response.RequireJSONBody()

	t := h.Tarea
	list := handler.Handle(t.Handler, t.List, http.StatusOK, &handler.EmptyRequest{})
	create := handler.Handle(t.Handler, t.Create, http.StatusOK, &handler.CreateTareaRequest{})
	options := t.Options
	collectionNotAllowed := t.MethodNotAllowed(middleware.CollectionMethods...)

	// Both /tareas and /tareas/ serve the collection.
	for _, path := range []string{"", "/"} {
		tareas.GET(path, list, collectionHeaders, acceptJSON)
		tareas.POST(path, create, collectionHeaders, requireJSON)
		tareas.PUT(path, collectionNotAllowed, collectionHeaders)
		tareas.DELETE(path, collectionNotAllowed, collectionHeaders)
		tareas.OPTIONS(path, options, collectionHeaders)
	}

	tareas.GET("/ultima", handler.Handle(t.Handler, t.Latest, http.StatusOK, &handler.EmptyRequest{}), latestHeaders, acceptJSON)
	tareas.OPTIONS("/ultima", options, latestHeaders)

	tareas.GET("/:id", handler.Handle(t.Handler, t.Get, http.StatusOK, &handler.TareaIDRequest{}), itemHeaders, acceptJSON)
	tareas.PUT("/:id", handler.Handle(t.Handler, t.Update, http.StatusOK, &handler.UpdateTareaRequest{}), itemHeaders, requireJSON)
	tareas.DELETE("/:id", handler.Handle(t.Handler, t.Delete, http.StatusOK, &handler.TareaIDRequest{}), itemHeaders)
	tareas.POST("/:id", t.ItemMethodNotAllowed(middleware.ItemMethods...), itemHeaders)
	tareas.OPTIONS("/:id", options, itemHeaders)
}
