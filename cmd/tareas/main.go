package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/deppfellow/tareas/internal/config"
	"github.com/deppfellow/tareas/internal/handler"
	"github.com/deppfellow/tareas/internal/logger"
	"github.com/deppfellow/tareas/internal/repository"
	"github.com/deppfellow/tareas/internal/router"
	"github.com/deppfellow/tareas/internal/server"
	"github.com/deppfellow/tareas/internal/service"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	ctx := context.Background()

	srv, err := server.New(ctx, cfg, &log, loggerService)
	if err != nil {
		loggerService.Shutdown()
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)
	services := service.NewServices(srv, repos)
	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			// One operation so the HTTP server drains before the store and
			// Redis are closed. New Relic goes last to flush shutdown logs.
			"server": func(ctx context.Context) error {
				log.Info().Msg("shutting down server")
				err := srv.Shutdown(ctx)
				loggerService.Shutdown()
				return err
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("exit_code", exitCode).Msg("server exited")
	os.Exit(exitCode)
}
