package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/config"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/timesheet"
	appHTTP "github.com/cmlabs-hris/hris-timesheet-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/audit"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/events"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/hris-timesheet-go/internal/repository/redis"
	geofenceService "github.com/cmlabs-hris/hris-timesheet-go/internal/service/geofence"
	timesheetService "github.com/cmlabs-hris/hris-timesheet-go/internal/service/timesheet"
	"github.com/go-chi/httplog/v3"
)

// repositories is the storage backend selected by STORAGE_TYPE.
type repositories struct {
	tx         database.Transactor
	entries    timesheet.EntryRepository
	zones      geofence.ZoneRepository
	violations geofence.ViolationRepository
	coverage   geofence.CoverageRepository
	health     map[string]appHTTP.HealthCheck
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-timesheet"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "storage", cfg.Storage.Type, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	// Optional zone cache
	var zoneCache geofence.ZoneCache
	if cfg.Redis.URL != "" {
		client, err := redisRepo.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		zoneCache = redisRepo.NewZoneCache(client, cfg.Geofence.ZoneCacheTTL)
		repos.health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		slog.Info("Zone cache enabled", "ttl", cfg.Geofence.ZoneCacheTTL.String())
	}

	// Violation fan-out: SSE always, NATS when configured
	hub := sse.NewHub()
	notifiers := events.Fanout{events.NewHubNotifier(hub)}
	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			slog.Error("Failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer nc.Drain()
		notifiers = append(notifiers, events.NewNATSNotifier(nc, cfg.Geofence.ViolationSubjectPrefix))
		slog.Info("Publishing violations to NATS", "subject_prefix", cfg.Geofence.ViolationSubjectPrefix)
	}

	auditLogger := audit.New(logger)
	limits := geofence.ZoneLimits{
		MinRadiusMeters:  cfg.Geofence.MinRadiusMeters,
		MaxRadiusMeters:  cfg.Geofence.MaxRadiusMeters,
		MaxPolygonPoints: cfg.Geofence.MaxPolygonPoints,
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	zoneSvc := geofenceService.NewZoneService(repos.zones, zoneCache, auditLogger, limits)
	validatorSvc := geofenceService.NewLocationValidator(repos.zones, zoneCache)
	violationSvc := geofenceService.NewViolationService(repos.violations, auditLogger)
	coverageSvc := geofenceService.NewCoverageService(repos.coverage)
	timesheetSvc := timesheetService.NewTimesheetService(
		repos.tx,
		repos.entries,
		validatorSvc,
		violationSvc,
		notifiers,
		cfg.Rules,
	)

	// Background jobs
	scheduler := cron.NewScheduler()
	cron.NewGeofenceJobs(violationSvc, cfg.Geofence.ViolationRetentionDays, cfg.Geofence.CleanupInterval).RegisterJobs(scheduler)
	scheduler.Start()

	geofenceHandler := appHTTP.NewGeofenceHandler(zoneSvc, validatorSvc, violationSvc, coverageSvc, hub)
	timesheetHandler := appHTTP.NewTimesheetHandler(timesheetSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Logger:       logger,
			CORSOrigins:  cfg.App.CORSOrigins,
			HealthChecks: repos.health,
		},
		JWTService,
		geofenceHandler,
		timesheetHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "storage", cfg.Storage.Type, "geofence_failure_policy", cfg.Rules.GeofenceFailurePolicy)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	// SSE streams only end when their channel closes
	hub.Close()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Storage.Type {
	case config.StorageTypeMemory:
		store := memory.NewStore()
		slog.Warn("Using in-memory storage; data is lost on restart")
		return &repositories{
			tx:         store,
			entries:    memory.NewTimesheetEntryRepository(store),
			zones:      memory.NewGeofenceZoneRepository(store),
			violations: memory.NewGeofenceViolationRepository(store),
			coverage:   memory.NewCoverageRepository(store),
			health:     map[string]appHTTP.HealthCheck{},
			close:      func() {},
		}, nil

	default:
		dsn := cfg.DatabaseURL()
		if cfg.Database.MigrateOnStart {
			if err := database.Migrate(dsn); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		db, err := database.NewPostgreSQLDB(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		return &repositories{
			tx:         postgresql.NewTransactor(db),
			entries:    postgresql.NewTimesheetEntryRepository(db),
			zones:      postgresql.NewGeofenceZoneRepository(db),
			violations: postgresql.NewGeofenceViolationRepository(db),
			coverage:   postgresql.NewCoverageRepository(db),
			health:     map[string]appHTTP.HealthCheck{"database": db.Ping},
			close:      db.Close,
		}, nil
	}
}
