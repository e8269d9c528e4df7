package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/deppfellow/tareas/internal/lib/email"
)

var eventTitles = map[Event]string{
	EventCreated: "Tarea creada",
	EventUpdated: "Tarea actualizada",
	EventDeleted: "Tarea eliminada",
}

// handleLifecycleTask logs the event and, when notifications are configured,
// emails a summary. A returned error makes asynq retry the task.
func (j *JobService) handleLifecycleTask(ctx context.Context, t *asynq.Task) error {
	var p LifecyclePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal lifecycle payload: %w", err)
	}

	j.logger.Info().
		Str("event", string(p.Event)).
		Str("tarea_id", p.TareaID).
		Time("occurred_at", p.OccurredAt).
		Msg("Processing tarea lifecycle task")

	if j.mailer == nil || j.notifyTo == "" {
		return nil
	}

	title, ok := eventTitles[p.Event]
	if !ok {
		// Unknown events cannot succeed on retry.
		return fmt.Errorf("unknown lifecycle event %q: %w", p.Event, asynq.SkipRetry)
	}

	err := j.mailer.SendLifecycleEmail(j.notifyTo, email.LifecycleData{
		Title:       title,
		TareaID:     p.TareaID,
		Description: p.Description,
		Status:      p.Status,
		OccurredAt:  p.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		j.logger.Error().
			Str("event", string(p.Event)).
			Str("tarea_id", p.TareaID).
			Err(err).
			Msg("Failed to send lifecycle email")
		return err
	}

	j.logger.Info().
		Str("event", string(p.Event)).
		Str("tarea_id", p.TareaID).
		Msg("Successfully sent lifecycle email")

	return nil
}
