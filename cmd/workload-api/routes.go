package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/handler"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/middleware"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/config"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
	corsmiddleware "github.com/SMTech-UK/workload-wizard-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/SMTech-UK/workload-wizard-sub001/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
	}))
	r.Use(middleware.Metrics(app.metrics))

	metricsHandler := handler.NewMetricsHandler(app.metrics.Handler(), app.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.JWT(app.tokens))
	api.Use(middleware.OrganisationScope(app.organisations))

	edit := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	admin := middleware.RequireRoles(models.RoleAdmin)

	years := handler.NewAcademicYearHandler(app.years)
	api.GET("/academic-years", years.List)
	api.GET("/academic-years/default", years.Default)
	api.GET("/academic-years/:id", years.Get)
	api.POST("/academic-years", admin, years.Create)

	lecturers := handler.NewLecturerHandler(app.lecturers)
	api.GET("/lecturer-profiles", lecturers.ListProfiles)
	api.GET("/lecturer-profiles/:id", lecturers.GetProfile)
	api.POST("/lecturer-profiles", edit, lecturers.CreateProfile)
	api.PUT("/lecturer-profiles/:id", edit, lecturers.UpdateProfile)
	api.DELETE("/lecturer-profiles/:id", edit, lecturers.DeactivateProfile)
	api.GET("/lecturers/:id", lecturers.Get)
	api.POST("/lecturers", edit, lecturers.AddToYear)
	api.PATCH("/lecturers/:id/hours", edit, lecturers.UpdateHours)
	api.DELETE("/lecturers/:id", edit, lecturers.Delete)

	allocations := handler.NewAdminAllocationHandler(app.allocations)
	api.GET("/lecturers/:id/admin-allocations", allocations.List)
	api.POST("/lecturers/:id/admin-allocations/preview", allocations.Preview)
	api.PUT("/lecturers/:id/admin-allocations", edit, allocations.Save)

	modules := handler.NewModuleHandler(app.modules)
	api.GET("/module-profiles", modules.ListProfiles)
	api.GET("/module-profiles/:id", modules.GetProfile)
	api.POST("/module-profiles", edit, modules.CreateProfile)
	api.PUT("/module-profiles/:id", edit, modules.UpdateProfile)
	api.DELETE("/module-profiles/:id", edit, modules.DeactivateProfile)
	api.GET("/modules", modules.ListModules)
	api.POST("/modules", edit, modules.CreateModule)

	batches := handler.NewBatchHandler(app.batches)
	api.POST("/modules/bulk-import", edit, batches.ImportModules)
	api.POST("/rollover/modules", admin, batches.RolloverModules)
	api.POST("/rollover/lecturers", admin, batches.RolloverLecturers)

	iterations := handler.NewModuleIterationHandler(app.iterations)
	api.GET("/module-iterations", iterations.List)
	api.GET("/module-iterations/:id", iterations.Get)
	api.GET("/module-iterations/:id/allocations", iterations.Allocations)
	api.POST("/module-iterations", edit, iterations.Create)
	api.DELETE("/module-iterations/:id", edit, iterations.Delete)
	api.POST("/module-iterations/:id/assignments", edit, iterations.Assign)
	api.DELETE("/module-iterations/:id/assignments/:lecturerId", edit, iterations.Unassign)
	api.PATCH("/module-iterations/:id/status", edit, iterations.SetStatus)
	api.GET("/edit-session/pending", edit, iterations.Pending)
	api.POST("/edit-session/flush", edit, iterations.Flush)

	org := handler.NewOrgStructureHandler(app.org)
	api.GET("/faculties", org.ListFaculties)
	api.POST("/faculties", admin, org.CreateFaculty)
	api.PUT("/faculties/:id", admin, org.UpdateFaculty)
	api.DELETE("/faculties/:id", admin, org.DeleteFaculty)
	api.GET("/departments", org.ListDepartments)
	api.POST("/departments", admin, org.CreateDepartment)
	api.PUT("/departments/:id", admin, org.UpdateDepartment)
	api.DELETE("/departments/:id", admin, org.DeleteDepartment)

	workloads := handler.NewWorkloadHandler(app.workloads, app.reports)
	api.GET("/lecturers/:id/workload", workloads.Lecturer)
	api.GET("/workload/overview", workloads.Overview)
	api.POST("/reports/workload", edit, workloads.GenerateReport)
	api.GET("/reports/download/:token", workloads.DownloadReport)

	audit := handler.NewAuditHandler(app.auditLogs)
	api.GET("/audit-logs", edit, audit.List)

	return r
}
