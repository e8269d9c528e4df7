package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/tareas/internal/errs"
	"github.com/deppfellow/tareas/internal/server"
)

const (
	// AllowedHeaders is sent as Access-Control-Allow-Headers on every response.
	AllowedHeaders = "Accept,Content-Type"

	mimeJSON = "application/json"

	tareasPath = "/tareas"
)

// Methods served by each /tareas route, in the order they are advertised in
// Access-Control-Allow-Methods.
var (
	CollectionMethods = []string{http.MethodOptions, http.MethodGet, http.MethodPost}
	LatestMethods     = []string{http.MethodOptions, http.MethodGet}
	ItemMethods       = []string{http.MethodOptions, http.MethodGet, http.MethodDelete, http.MethodPut}
)

// ResponseMiddleware finalizes /tareas responses and validates the headers
// clients send.
type ResponseMiddleware struct {
	server *server.Server
}

func NewResponseMiddleware(s *server.Server) *ResponseMiddleware {
	return &ResponseMiddleware{server: s}
}

// Headers sets the CORS headers for a route accepting methods and the JSON
// content type before the handler runs, so success and error responses alike
// carry them.
func (rm *ResponseMiddleware) Headers(methods ...string) echo.MiddlewareFunc {
	allowMethods := strings.Join(methods, ",")
	allowOrigin := rm.server.Config.Server.CORSAllowOrigin

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			setHeaders(c.Response().Header(), allowMethods, allowOrigin)
			return next(c)
		}
	}
}

// SetTareaHeaders sets the /tareas headers on a response that never reached
// a route, such as echo's own 404 and 405. Paths outside /tareas and
// responses that already carry the headers are left alone.
func SetTareaHeaders(c echo.Context, allowOrigin string) {
	header := c.Response().Header()
	if header.Get(echo.HeaderAccessControlAllowOrigin) != "" {
		return
	}

	methods := tareaRouteMethods(c.Request().URL.Path)
	if methods == nil {
		return
	}
	setHeaders(header, strings.Join(methods, ","), allowOrigin)
}

// tareaRouteMethods maps a request path to the methods of the /tareas route
// serving it, or nil when the path is not part of the resource.
func tareaRouteMethods(path string) []string {
	rest, ok := strings.CutPrefix(path, tareasPath)
	if !ok {
		return nil
	}

	switch rest {
	case "", "/":
		return CollectionMethods
	case "/ultima":
		return LatestMethods
	}
	if strings.HasPrefix(rest, "/") {
		return ItemMethods
	}
	// e.g. /tareasfoo
	return nil
}

func setHeaders(header http.Header, allowMethods, allowOrigin string) {
	header.Set(echo.HeaderAccessControlAllowHeaders, AllowedHeaders)
	header.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
	header.Set(echo.HeaderAccessControlAllowCredentials, "true")
	header.Set(echo.HeaderAccessControlAllowOrigin, allowOrigin)
	header.Set(echo.HeaderContentType, mimeJSON)
}

// AcceptJSON rejects requests whose Accept header is present but admits no
// JSON response. An absent or empty header is accepted.
func (rm *ResponseMiddleware) AcceptJSON() echo.MiddlewareFunc {
	accepts := AcceptsJSON
	if rm.server.Config.Server.LenientAccept {
		accepts = AcceptsJSONLenient
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accept := c.Request().Header.Get(echo.HeaderAccept)
			if strings.TrimSpace(accept) != "" && !accepts(accept) {
				return errs.NewBadRequestError("Cabecera Accept invalida, se espera application/json", true, nil, nil).
					WithDetails(accept)
			}
			return next(c)
		}
	}
}

// RequireJSONBody rejects requests whose Content-Type is not application/json.
func (rm *ResponseMiddleware) RequireJSONBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contentType := c.Request().Header.Get(echo.HeaderContentType)
			if !IsJSONContentType(contentType) {
				return errs.NewBadRequestError("Cabecera Content-Type invalida, se espera application/json", true, nil, nil).
					WithDetails(contentType)
			}
			return next(c)
		}
	}
}

// AcceptsJSON reports whether an Accept header value names application/json.
// The value is split on ";" and one of the trimmed tokens must be exactly
// application/json, so "text/html, application/json" or "*/*" do not match.
func AcceptsJSON(accept string) bool {
	for _, token := range strings.Split(accept, ";") {
		if strings.TrimSpace(token) == mimeJSON {
			return true
		}
	}
	return false
}

// AcceptsJSONLenient is the matcher used with server.lenient_accept. Media
// ranges are split on "," and parameters on ";", case is ignored and the
// wildcards */* and application/* are accepted.
func AcceptsJSONLenient(accept string) bool {
	for _, mediaRange := range strings.Split(accept, ",") {
		for _, token := range strings.Split(mediaRange, ";") {
			switch strings.ToLower(strings.TrimSpace(token)) {
			case mimeJSON, "application/*", "*/*":
				return true
			}
		}
	}
	return false
}

// IsJSONContentType reports whether a Content-Type value names
// application/json, ignoring parameters such as charset.
func IsJSONContentType(contentType string) bool {
	for _, token := range strings.Split(contentType, ";") {
		if strings.ToLower(strings.TrimSpace(token)) == mimeJSON {
			return true
		}
	}
	return false
}
