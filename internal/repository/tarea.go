package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/deppfellow/tareas/internal/cache"
	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/store"
)

// Operation names used in PersistenceError messages.
const (
	opCreate = "crear"
	opList   = "listar"
	opGet    = "consultar"
	opUpdate = "actualizar"
	opDelete = "eliminar"
)

// TareaRepository maps tarea operations onto a store.Store and translates
// store failures into domain errors. Reads by id go through the cache when
// one is configured.
type TareaRepository struct {
	store store.Store
	cache *cache.Cache
	log   *zerolog.Logger
	now   func() time.Time
}

// NewTareaRepository builds the repository. c may be nil to disable caching.
func NewTareaRepository(st store.Store, c *cache.Cache, logger *zerolog.Logger) *TareaRepository {
	return &TareaRepository{
		store: st,
		cache: c,
		log:   logger,
		now:   time.Now,
	}
}

// Create stores a new tarea. The status always starts as PENDIENTE.
func (r *TareaRepository) Create(ctx context.Context, fields model.CreateFields) (*model.Tarea, error) {
	if fields.Description == "" {
		return nil, &model.ValidationError{Message: "La descripcion es obligatoria"}
	}

	tarea := &model.Tarea{
		Description: fields.Description,
		Status:      model.StatusPendiente,
	}

	if err := r.store.Save(ctx, tarea); err != nil {
		r.logger(ctx).Error().Err(err).Msg("failed to create tarea")
		return nil, &model.PersistenceError{Op: opCreate, Err: err}
	}

	r.logger(ctx).Info().Str("tarea_id", tarea.ID).Msg("tarea created")
	return tarea, nil
}

// GetAll returns every stored tarea.
func (r *TareaRepository) GetAll(ctx context.Context) ([]model.Tarea, error) {
	tareas, err := r.store.FindAll(ctx)
	if err != nil {
		r.logger(ctx).Error().Err(err).Msg("failed to list tareas")
		return nil, &model.PersistenceError{Op: opList, Err: err}
	}

	r.logger(ctx).Info().Int("count", len(tareas)).Msg("tareas listed")
	return tareas, nil
}

// GetOne returns the tarea with the given id.
func (r *TareaRepository) GetOne(ctx context.Context, id string) (*model.Tarea, error) {
	id, err := model.ParseID(id)
	if err != nil {
		return nil, err
	}

	// Only a lookup that succeeded may fill the cache afterwards.
	var (
		lookup   cache.Lookup
		fillable bool
	)
	if r.cache != nil {
		var err error
		lookup, err = r.cache.Get(ctx, id)
		switch {
		case err != nil:
			r.logger(ctx).Warn().Err(err).Str("tarea_id", id).Msg("cache read failed, falling back to store")
		case lookup.Hit:
			r.logger(ctx).Debug().Str("tarea_id", id).Msg("tarea served from cache")
			return lookup.Tarea, nil
		default:
			fillable = true
		}
	}

	tarea, err := r.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNoDocument) {
		r.logger(ctx).Info().Str("tarea_id", id).Msg("tarea not found")
		return nil, &model.NotFoundError{ID: id}
	}
	if err != nil {
		r.logger(ctx).Error().Err(err).Str("tarea_id", id).Msg("failed to get tarea")
		return nil, &model.PersistenceError{Op: opGet, Err: err}
	}

	if fillable {
		stored, err := r.cache.Fill(ctx, lookup, tarea)
		switch {
		case err != nil:
			r.logger(ctx).Warn().Err(err).Str("tarea_id", id).Msg("cache write failed")
		case !stored:
			r.logger(ctx).Debug().Str("tarea_id", id).Msg("tarea changed while reading, cache not filled")
		}
	}

	r.logger(ctx).Info().Str("tarea_id", id).Msg("tarea fetched")
	return tarea, nil
}

// Latest returns the most recently created tarea.
func (r *TareaRepository) Latest(ctx context.Context) (*model.Tarea, error) {
	tarea, err := r.store.Latest(ctx)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, &model.NotFoundError{}
	}
	if err != nil {
		r.logger(ctx).Error().Err(err).Msg("failed to get latest tarea")
		return nil, &model.PersistenceError{Op: opGet, Err: err}
	}

	r.logger(ctx).Info().Str("tarea_id", tarea.ID).Msg("latest tarea fetched")
	return tarea, nil
}

// Update overwrites the supplied fields of an existing tarea and stamps its
// modification date.
func (r *TareaRepository) Update(ctx context.Context, id string, fields model.UpdateFields) (*model.Tarea, error) {
	current, err := r.GetOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields.Description != nil && *fields.Description == "" {
		return nil, &model.ValidationError{Message: "La descripcion no puede estar vacia"}
	}
	if fields.Status != nil && !fields.Status.Valid() {
		return nil, &model.ValidationError{Message: "Estado invalido", Details: string(*fields.Status)}
	}

	date := model.NextDate(current.Date, r.now())
	matched, err := r.store.UpdateOne(ctx, current.ID, store.Update{
		Description: fields.Description,
		Status:      fields.Status,
		Date:        date,
	})
	r.invalidate(ctx, current.ID)
	if err != nil {
		r.logger(ctx).Error().Err(err).Str("tarea_id", current.ID).Msg("failed to update tarea")
		return nil, &model.PersistenceError{Op: opUpdate, Err: err}
	}
	if !matched {
		// Removed between the lookup and the write.
		return nil, &model.NotFoundError{ID: current.ID}
	}

	updated := *current
	if fields.Description != nil {
		updated.Description = *fields.Description
	}
	if fields.Status != nil {
		updated.Status = *fields.Status
	}
	updated.Date = &date

	r.logger(ctx).Info().Str("tarea_id", updated.ID).Msg("tarea updated")
	return &updated, nil
}

// Delete removes the tarea and reports whether it existed. A missing tarea
// is not an error.
func (r *TareaRepository) Delete(ctx context.Context, id string) (bool, error) {
	id, err := model.ParseID(id)
	if err != nil {
		return false, err
	}

	deleted, err := r.store.Remove(ctx, id)
	r.invalidate(ctx, id)
	if err != nil {
		r.logger(ctx).Error().Err(err).Str("tarea_id", id).Msg("failed to delete tarea")
		return false, &model.PersistenceError{Op: opDelete, Err: err}
	}

	r.logger(ctx).Info().Str("tarea_id", id).Bool("deleted", deleted).Msg("tarea delete processed")
	return deleted, nil
}

// Ping checks that the underlying store answers.
func (r *TareaRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// logger prefers the request-scoped logger carried by ctx.
func (r *TareaRepository) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return r.log
}

func (r *TareaRepository) invalidate(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, id); err != nil {
		r.logger(ctx).Warn().Err(err).Str("tarea_id", id).Msg("cache invalidation failed")
	}
}
