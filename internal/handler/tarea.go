package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/tareas/internal/errs"
	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/server"
	"github.com/deppfellow/tareas/internal/service"
	"github.com/deppfellow/tareas/internal/sqlerr"
)

var (
	codeValidation  = "VALIDATION_ERROR"
	codeInvalidID   = "INVALID_ID"
	codeNotFound    = "TAREA_NOT_FOUND"
	codePersistence = "PERSISTENCE_ERROR"
)

// TareaHandler serves the /tareas resource.
type TareaHandler struct {
	Handler
	tareaService *service.TareaService
}

func NewTareaHandler(s *server.Server, tareaService *service.TareaService) *TareaHandler {
	return &TareaHandler{
		Handler:      NewHandler(s),
		tareaService: tareaService,
	}
}

func (h *TareaHandler) List(c echo.Context, _ *EmptyRequest) (tareaList, error) {
	tareas, err := h.tareaService.List(c.Request().Context())
	if err != nil {
		return nil, h.toHTTPError(err)
	}
	return tareaList(tareas), nil
}

func (h *TareaHandler) Get(c echo.Context, req *TareaIDRequest) (*model.Tarea, error) {
	tarea, err := h.tareaService.Get(c.Request().Context(), req.ID)
	if err != nil {
		return nil, h.toHTTPError(err)
	}
	return tarea, nil
}

func (h *TareaHandler) Latest(c echo.Context, _ *EmptyRequest) (*model.Tarea, error) {
	tarea, err := h.tareaService.Latest(c.Request().Context())
	if err != nil {
		return nil, h.toHTTPError(err)
	}
	return tarea, nil
}

func (h *TareaHandler) Create(c echo.Context, req *CreateTareaRequest) (*model.Tarea, error) {
	tarea, err := h.tareaService.Create(c.Request().Context(), model.CreateFields{
		Description: req.Description,
	})
	if err != nil {
		return nil, h.toHTTPError(err)
	}
	return tarea, nil
}

func (h *TareaHandler) Update(c echo.Context, req *UpdateTareaRequest) (*model.Tarea, error) {
	tarea, err := h.tareaService.Update(c.Request().Context(), req.ID, model.UpdateFields{
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return nil, h.toHTTPError(err)
	}
	return tarea, nil
}

// Delete answers 200 for a missing tarea unless strict not-found is enabled.
func (h *TareaHandler) Delete(c echo.Context, req *TareaIDRequest) (*DeleteTareaResponse, error) {
	deleted, err := h.tareaService.Delete(c.Request().Context(), req.ID)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	id := strings.ToLower(strings.TrimSpace(req.ID))
	if !deleted && h.server.Config.Server.StrictNotFound {
		return nil, h.toHTTPError(&model.NotFoundError{ID: id})
	}

	return &DeleteTareaResponse{ID: id, Deleted: deleted}, nil
}

// Options answers CORS preflight requests with an empty body. Preflights
// are not bound, whatever body or content type they carry.
func (h *TareaHandler) Options(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// MethodNotAllowed rejects a method on the collection route.
func (h *TareaHandler) MethodNotAllowed(allowed ...string) echo.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderAllow, allow)
		return errs.NewMethodNotAllowedError(fmt.Sprintf("%s method is not supported on /tareas", c.Request().Method))
	}
}

// ItemMethodNotAllowed rejects a method on the /tareas/:id route.
func (h *TareaHandler) ItemMethodNotAllowed(allowed ...string) echo.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderAllow, allow)
		return errs.NewMethodNotAllowedError(fmt.Sprintf("%s operation is not supported on /tareas/%s", c.Request().Method, c.Param("id")))
	}
}

// toHTTPError maps domain errors onto the API error shape. Unknown errors are
// returned unchanged for the global error handler.
func (h *TareaHandler) toHTTPError(err error) error {
	var (
		validationErr  *model.ValidationError
		invalidIDErr   *model.InvalidIDError
		notFoundErr    *model.NotFoundError
		persistenceErr *model.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		return errs.NewBadRequestError(validationErr.Message, true, &codeValidation, nil).
			WithDetails(validationErr.Details)

	case errors.As(err, &invalidIDErr):
		return errs.NewBadRequestError(invalidIDErr.Error(), true, &codeInvalidID, nil)

	case errors.As(err, &notFoundErr):
		if h.server.Config.Server.StrictNotFound {
			return errs.NewNotFoundError(notFoundErr.Error(), true, &codeNotFound)
		}
		return errs.NewBadRequestError(notFoundErr.Error(), true, &codeNotFound, nil)

	case errors.As(err, &persistenceErr):
		code := codePersistence
		details := persistenceErr.Err.Error()
		if sqlCode := sqlerr.ErrorCode(persistenceErr.Err); sqlCode != "" {
			code = sqlCode
			details = sqlerr.UserMessage(persistenceErr.Err)
		}
		return errs.NewBadRequestError(persistenceErr.Summary(), false, &code, nil).
			WithDetails(details)

	default:
		return err
	}
}
