package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/core/config"
	"github.com/aleciaid/crm-bj/internal/core/container"
	"github.com/aleciaid/crm-bj/internal/core/routes"
)

const shutdownTimeout = 15 * time.Second

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background scheduler.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, log, err := loadConfig((*config.Config).ValidateServe)
		if err != nil {
			return err
		}
		defer log.Sync()

		app, err := container.NewAppContainer(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.UserService.SeedDefaults(ctx); err != nil {
			return err
		}

		jobs, err := app.NewScheduler()
		if err != nil {
			return err
		}
		jobs.Start()

		gin.SetMode(gin.ReleaseMode)
		server := &http.Server{
			Addr:              cfg.Server.Host,
			Handler:           routes.NewRouter(app),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("Starting server", zap.String("addr", cfg.Server.Host), zap.String("storage", cfg.Storage.Driver))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err = <-serveErr:
		case <-ctx.Done():
			log.Info("Shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error("Server shutdown failed", zap.Error(shutdownErr))
		}
		if stopErr := jobs.Stop(shutdownCtx); stopErr != nil {
			log.Error("Scheduler did not stop in time", zap.Error(stopErr))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
