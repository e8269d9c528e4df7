// Package repository translates tarea operations into document store calls.
//
// Repositories is the container the service layer depends on. It is built
// from the server's shared resources: the selected store driver and, when
// Redis is configured, a read cache.
package repository

import (
	"github.com/deppfellow/tareas/internal/cache"
	"github.com/deppfellow/tareas/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Tarea *TareaRepository
}

// NewRepositories constructs the repository container.
func NewRepositories(s *server.Server) *Repositories {
	var c *cache.Cache
	if s.Redis != nil {
		c = cache.New(s.Redis, s.Config.Cache.Prefix, s.Config.Cache.TTL)
	}

	return &Repositories{
		Tarea: NewTareaRepository(s.Store, c, s.Logger),
	}
}
