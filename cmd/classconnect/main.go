package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/classconnect-api/api/swagger"
	"github.com/noah-isme/classconnect-api/internal/handler"
	internalmiddleware "github.com/noah-isme/classconnect-api/internal/middleware"
	"github.com/noah-isme/classconnect-api/internal/repository"
	"github.com/noah-isme/classconnect-api/internal/service"
	"github.com/noah-isme/classconnect-api/internal/view"
	"github.com/noah-isme/classconnect-api/pkg/cache"
	"github.com/noah-isme/classconnect-api/pkg/config"
	"github.com/noah-isme/classconnect-api/pkg/database"
	"github.com/noah-isme/classconnect-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classconnect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classconnect-api/pkg/middleware/requestid"
)

// @title ClassConnect API
// @version 1.0.0
// @description Classes, assignments and announcements for teachers and students
// @BasePath /api/v1
// @schemes http

type sessionStorage interface {
	service.SessionStorage
	Close() error
}

type entityServices struct {
	classes       *service.ClassService
	assignments   *service.AssignmentService
	announcements *service.AnnouncementService
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	notifications := service.NewNotificationService(cfg.Notifications.TTL, cfg.Notifications.Workers, metrics, logr)
	notifications.Start(ctx)
	defer notifications.Stop()

	probes := map[string]handler.Probe{}
	entities, closeStore, err := openStore(ctx, cfg, notifications, metrics, logr, probes)
	if err != nil {
		logr.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	storage, err := openSessionStorage(ctx, cfg, logr, probes)
	if err != nil {
		logr.Fatal("failed to open session storage", zap.String("store", cfg.Session.Store), zap.Error(err))
	}
	defer storage.Close() //nolint:errcheck
	sessions := service.NewSessionService(storage, notifications, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))

	ops := handler.NewMetricsHandler(metrics, probes)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		swagger.SwaggerInfo.BasePath = cfg.APIPrefix
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix,
		internalmiddleware.CookieSessions(cfg.Session.CookieName, cfg.Session.Secret, cfg.Session.TTL, cfg.Env == config.EnvProduction),
		internalmiddleware.ClientKey(),
		internalmiddleware.Session(sessions),
	)
	handler.RegisterRoutes(api, handler.Handlers{
		Classes:       handler.NewClassHandler(entities.classes),
		Assignments:   handler.NewAssignmentHandler(entities.assignments),
		Announcements: handler.NewAnnouncementHandler(entities.announcements),
		Session:       handler.NewSessionHandler(),
		Notifications: handler.NewNotificationHandler(notifications),
		Pages: handler.NewPageHandler(view.Deps{
			Classes:       entities.classes,
			Assignments:   entities.assignments,
			Announcements: entities.announcements,
			Notifier:      notifications,
			Metrics:       metrics,
		}, service.NewExportService(nil, nil, logr)),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver, "session_store", cfg.Session.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logr.Error("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("could not stop server gracefully", zap.Error(err))
		_ = srv.Close()
	}
}

func openStore(ctx context.Context, cfg *config.Config, notifier service.Notifier, metrics *service.MetricsService, logr *zap.Logger, probes map[string]handler.Probe) (entityServices, func(), error) {
	validate := validator.New()
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := repository.NewMemoryStore()
		if cfg.Store.SeedDemo {
			if err := repository.SeedDemo(ctx, store, time.Now().UTC()); err != nil {
				return entityServices{}, nil, err
			}
			logr.Info("seeded demo data")
		}
		return entityServices{
			classes:       service.NewClassService(store.Classes, notifier, metrics, validate, logr).WithStoreTimeout(cfg.Store.Timeout),
			assignments:   service.NewAssignmentService(store.Assignments, notifier, metrics, validate, logr).WithStoreTimeout(cfg.Store.Timeout),
			announcements: service.NewAnnouncementService(store.Announcements, notifier, metrics, validate, logr).WithStoreTimeout(cfg.Store.Timeout),
		}, func() {}, nil

	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return entityServices{}, nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return entityServices{}, nil, err
		}
		probes["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		return postgresServices(db, cfg, notifier, metrics, validate, logr), func() { _ = db.Close() }, nil

	default:
		return entityServices{}, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func postgresServices(db *sqlx.DB, cfg *config.Config, notifier service.Notifier, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) entityServices {
	return entityServices{
		classes:       service.NewClassService(repository.NewClassRepository(db), notifier, metrics, validate, logr).WithStoreTimeout(cfg.Store.Timeout),
		assignments:   service.NewAssignmentService(repository.NewAssignmentRepository(db), notifier, metrics, validate, logr).WithStoreTimeout(cfg.Store.Timeout),
		announcements: service.NewAnnouncementService(repository.NewAnnouncementRepository(db), notifier, metrics, validate, logr).WithStoreTimeout(cfg.Store.Timeout),
	}
}

func openSessionStorage(ctx context.Context, cfg *config.Config, logr *zap.Logger, probes map[string]handler.Probe) (sessionStorage, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		probes["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return repository.NewRedisSessionStorage(client, cfg.Session.TTL, logr), nil

	case config.SessionStoreBolt:
		db, err := database.NewBolt(cfg.Session.BoltPath)
		if err != nil {
			return nil, err
		}
		storage, err := repository.NewBoltSessionStorage(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return storage, nil

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
