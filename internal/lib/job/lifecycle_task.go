package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTareaLifecycle is the job type name stored in Redis.
const TaskTareaLifecycle = "tarea:lifecycle"

// Event names a change in a tarea's lifecycle.
type Event string

const (
	EventCreated Event = "created"
	EventUpdated Event = "updated"
	EventDeleted Event = "deleted"
)

// LifecyclePayload is the JSON payload of a lifecycle task.
type LifecyclePayload struct {
	Event       Event     `json:"event"`
	TareaID     string    `json:"tarea_id"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewLifecycleTask builds the asynq task for payload: default queue, up to 3
// retries, 30s timeout.
func NewLifecycleTask(payload LifecyclePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskTareaLifecycle,
		data,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
