package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/univ-adm/faculte-api/api/swagger"
	"github.com/univ-adm/faculte-api/internal/handler"
	"github.com/univ-adm/faculte-api/internal/middleware"
	"github.com/univ-adm/faculte-api/internal/models"
	"github.com/univ-adm/faculte-api/internal/repository"
	"github.com/univ-adm/faculte-api/internal/service"
	"github.com/univ-adm/faculte-api/pkg/cache"
	"github.com/univ-adm/faculte-api/pkg/config"
	"github.com/univ-adm/faculte-api/pkg/database"
	"github.com/univ-adm/faculte-api/pkg/jobs"
	"github.com/univ-adm/faculte-api/pkg/logger"
	corsmiddleware "github.com/univ-adm/faculte-api/pkg/middleware/cors"
	reqidmiddleware "github.com/univ-adm/faculte-api/pkg/middleware/requestid"
)

// @title Faculté Administration API
// @version 1.0.0
// @description Role-hierarchical administration backend for a university faculty.
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Redis is optional: without it the API serves uncached.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	responsableRepo := repository.NewResponsableRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	delegationRepo := repository.NewDelegationRepository(db)

	var deliveryQueue *jobs.Queue
	if cfg.Notifications.Enabled {
		deliveryQueue = jobs.NewQueue("notifications",
			service.DeliveryHandler(nil, logr),
			jobs.QueueConfig{
				Workers:    cfg.Notifications.WorkerConcurrency,
				MaxRetries: cfg.Notifications.WorkerRetries,
				RetryDelay: cfg.Notifications.RetryDelay,
				Logger:     logr,
			})
		deliveryQueue.Start(context.Background())
		defer deliveryQueue.Stop()
	}
	notificationSvc := service.NewNotificationService(notificationRepo, deliveryQueue, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "faculte-api",
	})
	adminSvc := service.NewAdminService(userRepo, nil, logr)
	groupSvc := service.NewGroupService(groupRepo, studentRepo, sectionRepo, notificationSvc, cacheSvc, nil, logr)
	requestSvc := service.NewRequestService(requestRepo, studentRepo, teacherRepo, groupRepo, responsableRepo, notificationSvc, cacheSvc, nil, logr)
	responsableSvc := service.NewResponsableService(responsableRepo, teacherRepo, sectionRepo, groupRepo, notificationSvc, nil, logr)
	delegationSvc := service.NewDelegationService(delegationRepo, userRepo, notificationSvc, nil, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:        userRepo,
		Requests:     requestRepo,
		Groups:       groupRepo,
		Responsables: responsableRepo,
		Cache:        cacheSvc,
		Logger:       logr,
		Config:       service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	exportSvc := service.NewExportService(groupSvc, groupRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	groupHandler := handler.NewGroupHandler(groupSvc)
	sectionHandler := handler.NewSectionHandler(sectionRepo)
	requestHandler := handler.NewRequestHandler(requestSvc)
	responsableHandler := handler.NewResponsableHandler(responsableSvc)
	delegationHandler := handler.NewDelegationHandler(delegationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	admins := protected.Group("")
	admins.Use(middleware.RequireAdministrative())
	{
		admins.POST("/administrateurs", adminHandler.Create)
		admins.GET("/administrateurs", adminHandler.List)
		admins.GET("/administrateurs/:id", adminHandler.Get)
		admins.PUT("/administrateurs/:id", adminHandler.Update)
		admins.DELETE("/administrateurs/:id", adminHandler.Delete)
		admins.GET("/hierarchie", adminHandler.Hierarchy)
		admins.POST("/hierarchie/acces", adminHandler.CheckAccess)

		admins.POST("/groupes", groupHandler.Create)
		admins.DELETE("/groupes/:id", groupHandler.Delete)
		admins.POST("/groupes/:id/etudiants", groupHandler.AssignStudent)
		admins.DELETE("/groupes/:id/etudiants/:etudiantId", groupHandler.RemoveStudent)

		admins.POST("/sections/:id/responsables", responsableHandler.Assign)
		admins.POST("/sections/:id/responsables/lot", responsableHandler.BulkAssign)
		admins.DELETE("/sections/:id/responsables/:responsableId", responsableHandler.Remove)

		admins.PUT("/demandes/:id/statut", requestHandler.UpdateStatus)

		if cfg.Delegations.Enabled {
			admins.POST("/delegations", delegationHandler.Delegate)
			admins.GET("/delegations", delegationHandler.ListSent)
		}
		if cfg.Dashboard.Enabled {
			admins.GET("/dashboard", dashboardHandler.Overview)
		}
	}

	protected.GET("/groupes/:id", groupHandler.Get)
	protected.GET("/groupes/:id/etudiants", groupHandler.Roster)
	protected.GET("/groupes/:id/disponibilite", groupHandler.Availability)
	protected.GET("/sections", sectionHandler.List)
	protected.GET("/sections/:id", sectionHandler.Get)
	protected.GET("/sections/:id/groupes", groupHandler.ListBySection)
	protected.GET("/sections/:id/responsables", responsableHandler.List)

	protected.POST("/demandes", middleware.RequireRoles(models.RoleEtudiant), requestHandler.Create)
	protected.GET("/demandes", requestHandler.List)
	protected.GET("/demandes/:id", requestHandler.Get)
	protected.POST("/demandes/:id/revue", middleware.RequireRoles(models.RoleEnseignant), requestHandler.Review)

	if cfg.Exports.Enabled {
		staffOrTeacher := middleware.RequireRoles(
			models.RoleDoyen, models.RoleViceDoyen, models.RoleChefDepartement,
			models.RoleChefSpecialite, models.RoleSecretaire, models.RoleEnseignant)
		protected.GET("/groupes/:id/export", staffOrTeacher, exportHandler.Roster)
		protected.GET("/exports/occupation", staffOrTeacher, exportHandler.Occupancy)
	}

	protected.GET("/notifications", notificationHandler.List)
	protected.PUT("/notifications/:id/lu", notificationHandler.MarkRead)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
