package handler

import (
	"embed"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/tareas/internal/server"
)

//go:embed static/openapi.html static/openapi.json
var docs embed.FS

// OpenAPIHandler serves the API reference UI and the OpenAPI document it
// loads. Both are embedded in the binary and served with no-cache.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	return h.serve(c, "static/openapi.html", echo.MIMETextHTMLCharsetUTF8)
}

func (h *OpenAPIHandler) ServeOpenAPISpec(c echo.Context) error {
	return h.serve(c, "static/openapi.json", echo.MIMEApplicationJSON)
}

func (h *OpenAPIHandler) serve(c echo.Context, name, contentType string) error {
	data, err := docs.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	c.Response().Header().Set("Cache-Control", "no-cache")

	if err := c.Blob(http.StatusOK, contentType, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}
