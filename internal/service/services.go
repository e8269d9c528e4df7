// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives validated
// data from the handler, calls repository methods and publishes background
// jobs for the changes it makes.
package service

import (
	"github.com/deppfellow/tareas/internal/repository"
	"github.com/deppfellow/tareas/internal/server"
)

type Services struct {
	Tarea *TareaService
}

func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	var publisher Publisher
	if s.Job != nil {
		publisher = s.Job
	}

	return &Services{
		Tarea: NewTareaService(repos.Tarea, publisher, s.Logger),
	}
}
