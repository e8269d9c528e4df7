package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/deppfellow/tareas/internal/lib/job"
	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/repository"
)

// Publisher enqueues lifecycle events for background processing.
type Publisher interface {
	Enqueue(ctx context.Context, payload job.LifecyclePayload) error
}

// TareaService runs tarea operations through the repository and publishes a
// lifecycle event after every successful write.
type TareaService struct {
	repo      *repository.TareaRepository
	publisher Publisher
	logger    *zerolog.Logger
	now       func() time.Time
}

// NewTareaService builds the service. publisher may be nil to disable events.
func NewTareaService(repo *repository.TareaRepository, publisher Publisher, logger *zerolog.Logger) *TareaService {
	return &TareaService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *TareaService) List(ctx context.Context) ([]model.Tarea, error) {
	return s.repo.GetAll(ctx)
}

func (s *TareaService) Get(ctx context.Context, id string) (*model.Tarea, error) {
	return s.repo.GetOne(ctx, id)
}

func (s *TareaService) Latest(ctx context.Context) (*model.Tarea, error) {
	return s.repo.Latest(ctx)
}

func (s *TareaService) Create(ctx context.Context, fields model.CreateFields) (*model.Tarea, error) {
	tarea, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, job.EventCreated, tarea.ID, tarea)
	return tarea, nil
}

func (s *TareaService) Update(ctx context.Context, id string, fields model.UpdateFields) (*model.Tarea, error) {
	tarea, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, job.EventUpdated, tarea.ID, tarea)
	return tarea, nil
}

// Delete removes the tarea and reports whether it existed. Only an actual
// removal publishes an event.
func (s *TareaService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		// A removal implies the id parsed.
		normalized, _ := model.ParseID(id)
		s.publish(ctx, job.EventDeleted, normalized, nil)
	}
	return deleted, nil
}

// publish never fails the request; enqueue errors are only logged.
func (s *TareaService) publish(ctx context.Context, event job.Event, id string, tarea *model.Tarea) {
	if s.publisher == nil {
		return
	}

	payload := job.LifecyclePayload{
		Event:      event,
		TareaID:    id,
		OccurredAt: s.now().UTC(),
	}
	if tarea != nil {
		payload.TareaID = tarea.ID
		payload.Description = tarea.Description
		payload.Status = string(tarea.Status)
	}

	if err := s.publisher.Enqueue(ctx, payload); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", string(event)).
			Str("tarea_id", payload.TareaID).
			Msg("failed to enqueue lifecycle task")
	}
}
