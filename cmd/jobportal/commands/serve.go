package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"jobportal/internal/app"
	"jobportal/internal/cache"
	apphttp "jobportal/internal/http"
	"jobportal/internal/http/handlers"
	"jobportal/internal/http/metrics"
	httpmw "jobportal/internal/http/middleware"
	"jobportal/internal/http/response"
	"jobportal/internal/notify"
	"jobportal/internal/security"
	"jobportal/internal/storage"
)

// ServeAction runs the HTTP API until ctx is cancelled.
func ServeAction(ctx context.Context, cmd *cli.Command) error {
	ac, err := newAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer ac.Close()
	cfg := ac.cfg
	logger := ac.logger
	if port := cmd.String("port"); port != "" {
		cfg.HTTPPort = port
	}

	collector := metrics.NewCollector()
	response.SetErrorCollector(collector)

	layer := cache.NewLayer(ac.cacheStore(), logger, collector, cfg.CacheOpTimeout)
	files, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.NotifyDriver == "asynq" {
		client := notify.NewAsynqClient(ac.redis)
		defer client.Close()
		notifier = notify.NewAsynqNotifier(client)
	}

	var limiter httpmw.Limiter = httpmw.NewMemoryLimiter()
	if ac.redis != nil {
		limiter = httpmw.NewRedisLimiter(ac.redis, cfg.CacheOpTimeout, logger)
	}

	jwtProvider := security.NewJWTProvider(cfg.JWTSecret)
	jobCache := cache.NewJobInvalidator(layer, "/api/jobs")
	jobService := app.NewJobService(ac.jobs, ac.applications, jobCache, logger)
	applicationService := app.NewApplicationService(ac.applications, ac.jobs, ac.resumes, notifier, logger)
	resumeService := app.NewResumeService(ac.resumes, ac.applications, files, cfg.MaxUploadBytes, logger)
	authService := app.NewAuthService(ac.users, jwtProvider, cfg.AccessTokenTTL, logger)
	utilityService := app.NewUtilityService(ac.reports, layer, cfg.LogFile, logger)

	router := apphttp.NewRouter(apphttp.RouterDependencies{
		AuthHandler:        handlers.NewAuthHandler(authService, limiter),
		JobHandler:         handlers.NewJobHandler(jobService, applicationService, limiter, cfg.ApplyRateLimit, cfg.ApplyRateWindow),
		ApplicationHandler: handlers.NewApplicationHandler(applicationService),
		ResumeHandler:      handlers.NewResumeHandler(resumeService),
		UtilityHandler:     handlers.NewUtilityHandler(utilityService),
		AuthMiddleware:     httpmw.NewAuthMiddleware(jwtProvider),
		Cache:              layer,
		JobCache:           jobCache,
		CacheTTL:           cfg.CacheTTL,
		Metrics:            collector,
		RequestTimeout:     cfg.RequestTimeout,
		MaxUploadBytes:     cfg.MaxUploadBytes,
	})
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API started", slog.String("addr", server.Addr), slog.String("env", cfg.Env), slog.String("cache", cfg.CacheDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	applicationService.Wait()
	return nil
}
