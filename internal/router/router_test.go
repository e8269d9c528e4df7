package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/tareas/internal/config"
	"github.com/deppfellow/tareas/internal/errs"
	"github.com/deppfellow/tareas/internal/handler"
	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/repository"
	"github.com/deppfellow/tareas/internal/server"
	"github.com/deppfellow/tareas/internal/service"
	"github.com/deppfellow/tareas/internal/testutil"
)

func newTestRouter(t *testing.T, strictNotFound bool) (*echo.Echo, *testutil.FakeStore) {
	t.Helper()

	return newTestRouterWith(t, config.ServerConfig{
		Port:            "8080",
		CORSAllowOrigin: "*",
		StrictNotFound:  strictNotFound,
	})
}

func newTestRouterWith(t *testing.T, serverConfig config.ServerConfig) (*echo.Echo, *testutil.FakeStore) {
	t.Helper()

	logger := zerolog.Nop()
	fake := testutil.NewFakeStore()

	s := &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: "test"},
			Server:        serverConfig,
			Store:         config.StoreConfig{Driver: config.StoreDriverMongo},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
		Store:  fake,
	}

	repos := repository.NewRepositories(s)
	services := service.NewServices(s, repos)
	handlers := handler.NewHandlers(s, services)

	return NewRouter(s, handlers), fake
}

func do(t *testing.T, e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

var jsonHeaders = map[string]string{
	echo.HeaderContentType: echo.MIMEApplicationJSON,
	echo.HeaderAccept:      echo.MIMEApplicationJSON,
}

func createTarea(t *testing.T, e *echo.Echo, description string) model.Tarea {
	t.Helper()

	rec := do(t, e, http.MethodPost, "/tareas", `{"description":"`+description+`"}`, jsonHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tarea model.Tarea
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tarea))
	return tarea
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()

	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr), rec.Body.String())
	return httpErr
}

func TestCreateThenGet(t *testing.T) {
	e, _ := newTestRouter(t, false)

	created := createTarea(t, e, "x")
	assert.Equal(t, "x", created.Description)
	assert.Equal(t, model.StatusPendiente, created.Status)
	_, err := model.ParseID(created.ID)
	require.NoError(t, err)

	rec := do(t, e, http.MethodGet, "/tareas/"+created.ID, "", jsonHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched model.Tarea
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "x", fetched.Description)
}

func TestCORSHeaders(t *testing.T) {
	e, _ := newTestRouter(t, false)

	rec := do(t, e, http.MethodGet, "/tareas", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	header := rec.Header()
	assert.Equal(t, "*", header.Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", header.Get(echo.HeaderAccessControlAllowCredentials))
	assert.Equal(t, "Accept,Content-Type", header.Get(echo.HeaderAccessControlAllowHeaders))
	assert.Equal(t, "OPTIONS,GET,POST", header.Get(echo.HeaderAccessControlAllowMethods))
	assert.Contains(t, header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/tareas/"+model.NewID(), "", map[string]string{echo.HeaderAccept: "text/plain"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OPTIONS,GET,DELETE,PUT", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
}

func TestList_TrailingSlash(t *testing.T) {
	e, _ := newTestRouter(t, false)
	createTarea(t, e, "uno")
	createTarea(t, e, "dos")

	rec := do(t, e, http.MethodGet, "/tareas/", "", jsonHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	var tareas []model.Tarea
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tareas))
	require.Len(t, tareas, 2)
	assert.Equal(t, "uno", tareas[0].Description)
	assert.Equal(t, "dos", tareas[1].Description)
}

func TestAcceptHeader(t *testing.T) {
	e, _ := newTestRouter(t, false)

	for _, accept := range []string{"", "application/json", "application/json;q=0.9"} {
		rec := do(t, e, http.MethodGet, "/tareas", "", map[string]string{echo.HeaderAccept: accept})
		assert.Equal(t, http.StatusOK, rec.Code, accept)
	}

	for _, accept := range []string{"text/plain", "*/*", "application/*", "text/html, application/json"} {
		rec := do(t, e, http.MethodGet, "/tareas", "", map[string]string{echo.HeaderAccept: accept})
		require.Equal(t, http.StatusBadRequest, rec.Code, accept)
		assert.Equal(t, accept, decodeError(t, rec).Details)
	}
}

func TestAcceptHeader_Lenient(t *testing.T) {
	e, _ := newTestRouterWith(t, config.ServerConfig{CORSAllowOrigin: "*", LenientAccept: true})

	for _, accept := range []string{"*/*", "application/*", "text/html, application/json"} {
		rec := do(t, e, http.MethodGet, "/tareas", "", map[string]string{echo.HeaderAccept: accept})
		assert.Equal(t, http.StatusOK, rec.Code, accept)
	}

	rec := do(t, e, http.MethodGet, "/tareas", "", map[string]string{echo.HeaderAccept: "text/plain"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_RejectsNonJSONContentType(t *testing.T) {
	e, fake := newTestRouter(t, false)

	rec := do(t, e, http.MethodPost, "/tareas", `{"description":"x"}`, map[string]string{
		echo.HeaderContentType: echo.MIMETextPlain,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, fake.Len())
}

func TestCreate_RejectsMissingDescription(t *testing.T) {
	e, fake := newTestRouter(t, false)

	for _, body := range []string{`{}`, `{"description":null}`, `{"description":""}`, `{"description":`} {
		rec := do(t, e, http.MethodPost, "/tareas", body, jsonHeaders)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Equal(t, 0, fake.Len())
}

func TestCreate_StoreFailure(t *testing.T) {
	e, fake := newTestRouter(t, false)
	fake.SaveErr = errors.New("connection refused")

	rec := do(t, e, http.MethodPost, "/tareas", `{"description":"x"}`, jsonHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	httpErr := decodeError(t, rec)
	assert.Equal(t, "PERSISTENCE_ERROR", httpErr.Code)
	assert.Equal(t, "Error al crear la tarea", httpErr.Message)
	assert.Equal(t, "connection refused", httpErr.Details)
}

func TestList_StoreFailure(t *testing.T) {
	e, fake := newTestRouter(t, false)
	fake.FindAllErr = errors.New("cursor killed")

	rec := do(t, e, http.MethodGet, "/tareas", "", jsonHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	httpErr := decodeError(t, rec)
	assert.Equal(t, "PERSISTENCE_ERROR", httpErr.Code)
	assert.Equal(t, "Error al listar la tarea", httpErr.Message)
	assert.Equal(t, "cursor killed", httpErr.Details)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestUpdate_StoreFailure(t *testing.T) {
	e, fake := newTestRouter(t, false)
	created := createTarea(t, e, "x")
	fake.UpdateErr = errors.New("write conflict")

	rec := do(t, e, http.MethodPut, "/tareas/"+created.ID, `{"status":"TERMINADA"}`, jsonHeaders)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	httpErr := decodeError(t, rec)
	assert.Equal(t, "PERSISTENCE_ERROR", httpErr.Code)
	assert.Equal(t, "Error al actualizar la tarea", httpErr.Message)
	assert.Equal(t, "write conflict", httpErr.Details)
}

func TestLatest_StoreFailure(t *testing.T) {
	e, fake := newTestRouter(t, false)
	fake.LatestErr = errors.New("no primary")

	rec := do(t, e, http.MethodGet, "/tareas/ultima", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PERSISTENCE_ERROR", decodeError(t, rec).Code)
}

func TestGet_InvalidAndMissingID(t *testing.T) {
	e, _ := newTestRouter(t, false)

	rec := do(t, e, http.MethodGet, "/tareas/not-an-id", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", decodeError(t, rec).Code)

	rec = do(t, e, http.MethodGet, "/tareas/"+model.NewID(), "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TAREA_NOT_FOUND", decodeError(t, rec).Code)
}

func TestUpdate_MissingID(t *testing.T) {
	e, _ := newTestRouter(t, false)

	rec := do(t, e, http.MethodPut, "/tareas/"+model.NewID(), `{"status":"TERMINADA"}`, jsonHeaders)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "Id invalido")
}

func TestUpdate_RoundTrip(t *testing.T) {
	e, _ := newTestRouter(t, false)
	created := createTarea(t, e, "original")

	rec := do(t, e, http.MethodPut, "/tareas/"+created.ID, `{"status":"EN_PROGRESO"}`, jsonHeaders)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first model.Tarea
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "original", first.Description)
	assert.Equal(t, model.StatusEnProgreso, first.Status)
	require.NotNil(t, first.Date)

	rec = do(t, e, http.MethodPut, "/tareas/"+created.ID, `{"description":"cambiada"}`, jsonHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	var second model.Tarea
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, "cambiada", second.Description)
	assert.Equal(t, model.StatusEnProgreso, second.Status)
	require.NotNil(t, second.Date)
	assert.True(t, second.Date.After(*first.Date))

	rec = do(t, e, http.MethodGet, "/tareas/"+created.ID, "", nil)
	var fetched model.Tarea
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "cambiada", fetched.Description)
	assert.True(t, fetched.Date.Equal(*second.Date))
}

func TestUpdate_RejectsUnknownStatus(t *testing.T) {
	e, _ := newTestRouter(t, false)
	created := createTarea(t, e, "x")

	rec := do(t, e, http.MethodPut, "/tareas/"+created.ID, `{"status":"HECHA"}`, jsonHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPut, "/tareas/"+created.ID, `{"status":"TERMINADA"}`, map[string]string{
		echo.HeaderContentType: echo.MIMETextPlain,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	e, fake := newTestRouter(t, false)
	created := createTarea(t, e, "x")

	rec := do(t, e, http.MethodDelete, "/tareas/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+created.ID+`","deleted":true}`, rec.Body.String())
	assert.Equal(t, 0, fake.Len())

	rec = do(t, e, http.MethodDelete, "/tareas/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+created.ID+`","deleted":false}`, rec.Body.String())
}

func TestStrictNotFound(t *testing.T) {
	e, _ := newTestRouter(t, true)
	missing := model.NewID()

	rec := do(t, e, http.MethodGet, "/tareas/"+missing, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodDelete, "/tareas/"+missing, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, "/tareas/ultima", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatest(t *testing.T) {
	e, _ := newTestRouter(t, false)

	rec := do(t, e, http.MethodGet, "/tareas/ultima", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	createTarea(t, e, "primera")
	second := createTarea(t, e, "segunda")

	rec = do(t, e, http.MethodGet, "/tareas/ultima", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var latest model.Tarea
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, second.ID, latest.ID)
}

func TestMethodNotAllowed(t *testing.T) {
	e, _ := newTestRouter(t, false)
	id := model.NewID()

	tests := []struct {
		method  string
		target  string
		message string
	}{
		{http.MethodPut, "/tareas", "PUT method is not supported on /tareas"},
		{http.MethodDelete, "/tareas", "DELETE method is not supported on /tareas"},
		{http.MethodPost, "/tareas/" + id, "POST operation is not supported on /tareas/" + id},
	}

	for _, tt := range tests {
		rec := do(t, e, tt.method, tt.target, "", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, tt.method+" "+tt.target)
		assert.Equal(t, tt.message, decodeError(t, rec).Message)
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderAllow))
	}
}

func TestOptions(t *testing.T) {
	e, _ := newTestRouter(t, false)

	for _, target := range []string{"/tareas", "/tareas/", "/tareas/ultima", "/tareas/" + model.NewID()} {
		rec := do(t, e, http.MethodOptions, target, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Empty(t, rec.Body.String(), target)
		assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin), target)
	}
}

func TestOptions_IgnoresBody(t *testing.T) {
	e, fake := newTestRouter(t, false)

	rec := do(t, e, http.MethodOptions, "/tareas", "not json", map[string]string{
		echo.HeaderContentType: echo.MIMETextPlain,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "OPTIONS,GET,POST", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, 0, fake.Len())
}

func TestUnregisteredMethod_CarriesCORSHeaders(t *testing.T) {
	e, _ := newTestRouter(t, false)

	tests := []struct {
		target  string
		methods string
	}{
		{"/tareas", "OPTIONS,GET,POST"},
		{"/tareas/", "OPTIONS,GET,POST"},
		{"/tareas/" + model.NewID(), "OPTIONS,GET,DELETE,PUT"},
	}

	for _, tt := range tests {
		rec := do(t, e, http.MethodPatch, tt.target, `{"description":"x"}`, jsonHeaders)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, tt.target)

		header := rec.Header()
		assert.Equal(t, "*", header.Get(echo.HeaderAccessControlAllowOrigin), tt.target)
		assert.Equal(t, "true", header.Get(echo.HeaderAccessControlAllowCredentials), tt.target)
		assert.Equal(t, tt.methods, header.Get(echo.HeaderAccessControlAllowMethods), tt.target)
		assert.Contains(t, header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON, tt.target)
	}
}

func TestStatus(t *testing.T) {
	e, fake := newTestRouter(t, false)

	rec := do(t, e, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, config.StoreDriverMongo, body["store"])

	fake.PingErr = errors.New("no reachable servers")

	rec = do(t, e, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestDocs(t *testing.T) {
	e, _ := newTestRouter(t, false)

	rec := do(t, e, http.MethodGet, "/docs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = do(t, e, http.MethodGet, "/docs/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/tareas/{id}")
}

func TestUnknownRoute(t *testing.T) {
	e, _ := newTestRouter(t, false)

	rec := do(t, e, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeError(t, rec).Message)
}

func TestRequestIDHeader(t *testing.T) {
	e, _ := newTestRouter(t, false)

	rec := do(t, e, http.MethodGet, "/tareas", "", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
