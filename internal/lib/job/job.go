// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - tasks are enqueued (producer) using asynq.Client.
//   - a server runs workers that process them (consumer) using asynq.Server.
package job

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/tareas/internal/config"
	"github.com/deppfellow/tareas/internal/lib/email"
)

// Mailer sends lifecycle notification emails.
type Mailer interface {
	SendLifecycleEmail(to string, data email.LifecycleData) error
}

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger

	mailer   Mailer
	notifyTo string
}

// NewJobService creates a JobService on the Redis instance from cfg.
//
// Queue weights give "critical" tasks more worker share:
// out of 10 workers roughly 6 serve critical, 3 default and 1 low.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:   newAsynqLogger(logger),
			LogLevel: asynq.WarnLevel,
		},
	)

	j := &JobService{
		Client: asynq.NewClient(redisOpt),
		server: server,
		logger: logger,
	}

	if cfg.Notifications.Enabled(cfg.Integration) {
		j.mailer = email.NewClient(cfg, logger)
		j.notifyTo = cfg.Notifications.EmailTo
	}

	return j
}

// Enqueue publishes a lifecycle task.
func (j *JobService) Enqueue(ctx context.Context, payload LifecyclePayload) error {
	task, err := NewLifecycleTask(payload)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("lifecycle task enqueued")
	return nil
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTareaLifecycle, j.handleLifecycleTask)
	return mux
}

// Start starts the background worker server. It does not block.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")
	return j.server.Start(j.Mux())
}

// Stop stops the workers, waiting for running tasks, and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("failed to close job client")
	}
}
