package handler

import (
	"github.com/go-playground/validator/v10"

	"github.com/deppfellow/tareas/internal/model"
)

var validate = validator.New()

// TareaIDRequest binds the :id path parameter.
type TareaIDRequest struct {
	ID string `param:"id" validate:"required"`
}

func (r *TareaIDRequest) Validate() error {
	return validate.Struct(r)
}

// EmptyRequest is used by endpoints that read nothing from the request.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error {
	return nil
}

// CreateTareaRequest is the POST /tareas body. Any status sent by the client
// is ignored.
type CreateTareaRequest struct {
	Description string `json:"description" validate:"required"`
}

func (r *CreateTareaRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateTareaRequest is the PUT /tareas/:id body. Absent fields are left
// unchanged.
type UpdateTareaRequest struct {
	ID          string        `param:"id" json:"-" validate:"required"`
	Description *string       `json:"description" validate:"omitempty,min=1"`
	Status      *model.Status `json:"status" validate:"omitempty,oneof=PENDIENTE EN_PROGRESO TERMINADA"`
}

func (r *UpdateTareaRequest) Validate() error {
	return validate.Struct(r)
}

// DeleteTareaResponse reports the outcome of DELETE /tareas/:id.
type DeleteTareaResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// tareaList is the GET /tareas response.
type tareaList []model.Tarea

func (l tareaList) Len() int {
	return len(l)
}
