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
	"go.uber.org/zap"

	_ "github.com/SMTech-UK/workload-wizard-sub001/api/swagger"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/handler"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/repository"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/cache"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/config"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/database"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/export"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/jobs"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/storage"
)

// @title Workload Wizard API
// @version 1.0.0
// @description Academic workload capacity and allocation service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	app, err := build(ctx, cfg, db, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	tokens        *service.TokenService
	organisations *service.OrganisationService
	metrics       *service.MetricsService
	years         *service.AcademicYearService
	lecturers     *service.LecturerService
	modules       *service.ModuleService
	iterations    *service.ModuleIterationService
	allocations   *service.AdminAllocationService
	batches       *service.BatchService
	org           *service.OrgStructureService
	workloads     *service.WorkloadService
	reports       *service.ReportService
	auditLogs     *service.AuditLogService

	checks  map[string]handler.DependencyCheck
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config, db *sqlx.DB, logr *zap.Logger) (*application, error) {
	app := &application{checks: map[string]handler.DependencyCheck{"postgres": db.PingContext}}
	validate := validator.New()

	orgRepo := repository.NewOrganisationRepository(db)
	yearRepo := repository.NewAcademicYearRepository(db)
	lecturerProfileRepo := repository.NewLecturerProfileRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	moduleProfileRepo := repository.NewModuleProfileRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	iterationRepo := repository.NewModuleIterationRepository(db)
	moduleAllocationRepo := repository.NewModuleAllocationRepository(db)
	adminAllocationRepo := repository.NewAdminAllocationRepository(db)
	orgUnitRepo := repository.NewOrgUnitRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	app.metrics = service.NewMetricsService()

	var sink service.AuditSink = auditRepo
	if cfg.Audit.Async {
		async := service.NewAsyncAuditSink(auditRepo, jobs.QueueConfig{
			Workers:    cfg.Audit.Workers,
			MaxRetries: cfg.Audit.Retries,
			RetryDelay: time.Second,
			Logger:     logr.Named("audit"),
		})
		async.Start(ctx)
		app.closers = append(app.closers, async.Stop)
		sink = async
	}
	audit := service.NewAuditRecorder(sink, logr)

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, workload cache disabled", zap.Error(err))
		} else {
			app.closers = append(app.closers, func() { _ = client.Close() })
			app.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client), app.metrics, cfg.Cache.WorkloadTTL, logr, true)
		}
	}

	app.tokens = service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})
	app.organisations = service.NewOrganisationService(orgRepo)
	app.years = service.NewAcademicYearService(yearRepo, audit, validate, logr)
	app.lecturers = service.NewLecturerService(lecturerProfileRepo, lecturerRepo, yearRepo, audit, cacheSvc, validate, logr)
	app.modules = service.NewModuleService(moduleProfileRepo, moduleRepo, yearRepo, audit, cacheSvc, validate, logr)
	app.iterations = service.NewModuleIterationService(service.ModuleIterationDeps{
		Iterations:  iterationRepo,
		Allocations: moduleAllocationRepo,
		Modules:     moduleRepo,
		Profiles:    moduleProfileRepo,
		Lecturers:   lecturerRepo,
		Audit:       audit,
		Cache:       cacheSvc,
		Metrics:     app.metrics,
	}, validate, logr)
	app.allocations = service.NewAdminAllocationService(adminAllocationRepo, lecturerRepo, lecturerProfileRepo, audit, cacheSvc, app.metrics, validate, logr)
	app.batches = service.NewBatchService(service.BatchDeps{
		ModuleProfiles:   moduleProfileRepo,
		Modules:          moduleRepo,
		LecturerProfiles: lecturerProfileRepo,
		Lecturers:        lecturerRepo,
		Years:            yearRepo,
		Audit:            audit,
		Cache:            cacheSvc,
		Metrics:          app.metrics,
		Policies: service.BatchPolicies{
			BulkImport: service.ParseAuditPolicy(cfg.Audit.BulkMode, service.AuditPolicyBatch),
			Rollover:   service.ParseAuditPolicy(cfg.Audit.RolloverMode, service.AuditPolicyNone),
		},
	}, validate, logr)
	app.org = service.NewOrgStructureService(orgUnitRepo, audit, validate, logr)
	app.workloads = service.NewWorkloadService(lecturerRepo, yearRepo, cacheSvc, logr)
	app.auditLogs = service.NewAuditLogService(auditRepo)

	scheduler := service.NewScheduler(logr.Named("scheduler"))
	if cfg.Metrics.Enabled {
		poller := service.NewCapacityPoller(lecturerRepo, app.metrics, logr)
		if err := scheduler.Register("capacity-gauges", cfg.Metrics.PollSpec, poller.Refresh); err != nil {
			return nil, err
		}
	}

	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.Dir)
		if err != nil {
			return nil, fmt.Errorf("report storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SigningSecret, cfg.Reports.ResultTTL)
		app.reports = service.NewReportService(app.workloads, store, signer, service.ReportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.ResultTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())
		if err := scheduler.Register("report-cleanup", cfg.Reports.CleanupSpec, func(context.Context) { app.reports.Cleanup() }); err != nil {
			return nil, err
		}
	}

	scheduler.Start()
	app.closers = append(app.closers, scheduler.Stop)

	return app, nil
}
