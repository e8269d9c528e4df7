package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/tareas/internal/lib/email"
)

type fakeMailer struct {
	to   []string
	sent []email.LifecycleData
	err  error
}

func (f *fakeMailer) SendLifecycleEmail(to string, data email.LifecycleData) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, data)
	return nil
}

func newTestJobService(mailer Mailer, notifyTo string) *JobService {
	logger := zerolog.Nop()
	return &JobService{logger: &logger, mailer: mailer, notifyTo: notifyTo}
}

func lifecycleTask(t *testing.T, p LifecyclePayload) *asynq.Task {
	t.Helper()
	task, err := NewLifecycleTask(p)
	require.NoError(t, err)
	return task
}

func TestNewLifecycleTask(t *testing.T) {
	occurred := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	task := lifecycleTask(t, LifecyclePayload{
		Event:       EventCreated,
		TareaID:     "65f1c0ffee0ddba11ca7d00d",
		Description: "x",
		Status:      "PENDIENTE",
		OccurredAt:  occurred,
	})

	assert.Equal(t, TaskTareaLifecycle, task.Type())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, "created", decoded["event"])
	assert.Equal(t, "65f1c0ffee0ddba11ca7d00d", decoded["tarea_id"])
	assert.Equal(t, "2024-03-01T10:00:00Z", decoded["occurred_at"])
}

func TestHandleLifecycleTask_SendsEmail(t *testing.T) {
	mailer := &fakeMailer{}
	j := newTestJobService(mailer, "ops@example.com")

	err := j.handleLifecycleTask(context.Background(), lifecycleTask(t, LifecyclePayload{
		Event:       EventUpdated,
		TareaID:     "65f1c0ffee0ddba11ca7d00d",
		Description: "x",
		Status:      "TERMINADA",
		OccurredAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"ops@example.com"}, mailer.to)
	assert.Equal(t, "Tarea actualizada", mailer.sent[0].Title)
	assert.Equal(t, "TERMINADA", mailer.sent[0].Status)
	assert.Equal(t, "2024-03-01T10:00:00Z", mailer.sent[0].OccurredAt)
}

func TestHandleLifecycleTask_NotificationsDisabled(t *testing.T) {
	j := newTestJobService(nil, "")

	err := j.handleLifecycleTask(context.Background(), lifecycleTask(t, LifecyclePayload{
		Event:   EventDeleted,
		TareaID: "65f1c0ffee0ddba11ca7d00d",
	}))
	assert.NoError(t, err)
}

func TestHandleLifecycleTask_Failures(t *testing.T) {
	t.Run("bad payload", func(t *testing.T) {
		j := newTestJobService(&fakeMailer{}, "ops@example.com")
		err := j.handleLifecycleTask(context.Background(), asynq.NewTask(TaskTareaLifecycle, []byte("{")))
		assert.Error(t, err)
	})

	t.Run("unknown event skips retry", func(t *testing.T) {
		j := newTestJobService(&fakeMailer{}, "ops@example.com")
		err := j.handleLifecycleTask(context.Background(), lifecycleTask(t, LifecyclePayload{Event: "archived"}))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("mailer error is returned for retry", func(t *testing.T) {
		cause := errors.New("resend down")
		j := newTestJobService(&fakeMailer{err: cause}, "ops@example.com")
		err := j.handleLifecycleTask(context.Background(), lifecycleTask(t, LifecyclePayload{Event: EventCreated}))
		assert.ErrorIs(t, err, cause)
	})
}
