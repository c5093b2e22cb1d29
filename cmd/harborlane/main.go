package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harborlane/harborlane/internal/app"
	"github.com/harborlane/harborlane/internal/auth"
	"github.com/harborlane/harborlane/internal/leads"
	"github.com/harborlane/harborlane/internal/maintenance"
	"github.com/harborlane/harborlane/internal/pages"
	"github.com/harborlane/harborlane/internal/platform/db"
	"github.com/harborlane/harborlane/internal/properties"
	"github.com/harborlane/harborlane/internal/rbac"
	"github.com/harborlane/harborlane/internal/roles"
	"github.com/harborlane/harborlane/internal/shared"
	"github.com/harborlane/harborlane/internal/view"
	"github.com/harborlane/harborlane/jobs"
	"github.com/harborlane/harborlane/migrate"

	"github.com/hibiken/asynq"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := migrate.Run(migrate.Options{
		DSN:    cfg.PGDSN,
		Logger: log.New(os.Stdout, "[migrate] ", log.LstdFlags),
	}); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "harborlane_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger, Templates: templates}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, rbacService, auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService, rbacService, templates, csrfManager, sessionManager, rbacMiddleware)

	imageStore, err := properties.NewImageStore(cfg.MediaDir)
	if err != nil {
		logger.Error("init media store", slog.Any("error", err))
		os.Exit(1)
	}
	propertiesRepo := properties.NewRepository(dbpool)
	propertiesService := properties.NewService(propertiesRepo, rbacService, auditLogger)
	propertiesHandler := properties.NewHandler(logger, propertiesService, imageStore, templates, csrfManager, sessionManager, rbacMiddleware)

	attachmentStore, err := maintenance.NewAttachmentStore(cfg.MediaDir)
	if err != nil {
		logger.Error("init attachment store", slog.Any("error", err))
		os.Exit(1)
	}
	maintenanceRepo := maintenance.NewRepository(dbpool)
	maintenanceService := maintenance.NewService(maintenanceRepo, rbacService, auditLogger)
	maintenanceHandler := maintenance.NewHandler(logger, maintenanceService, attachmentStore, templates, csrfManager, sessionManager, rbacMiddleware)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	leadsRepo := leads.NewRepository(dbpool)
	leadsService := leads.NewService(leadsRepo, rbacService, auditLogger, jobsClient, logger)
	leadsHandler := leads.NewHandler(logger, leadsService, templates, csrfManager, sessionManager, rbacMiddleware)

	pagesHandler := pages.NewHandler(logger, propertiesService, templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,

		AuthHandler:        authHandler,
		PagesHandler:       pagesHandler,
		RolesHandler:       rolesHandler,
		PropertiesHandler:  propertiesHandler,
		MaintenanceHandler: maintenanceHandler,
		LeadsHandler:       leadsHandler,
		JobsHandler:        jobsHandler,

		PropertiesService:  propertiesService,
		MaintenanceService: maintenanceService,
		LeadsService:       leadsService,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
