package handler

import (
	"github.com/deppfellow/tareas/internal/server"
	"github.com/deppfellow/tareas/internal/service"
)

// Handlers groups all HTTP handlers for the router.
type Handlers struct {
	Tarea   *TareaHandler
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Tarea:   NewTareaHandler(s, services.Tarea),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
