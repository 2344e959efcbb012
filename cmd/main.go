package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/suteetoe/perftrack/internal/handler"
	"github.com/suteetoe/perftrack/internal/middleware"
	"github.com/suteetoe/perftrack/internal/model"
	"github.com/suteetoe/perftrack/pkg/blobstore"
	"github.com/suteetoe/perftrack/pkg/config"
	"github.com/suteetoe/perftrack/pkg/database"
	"github.com/suteetoe/perftrack/pkg/jwtutil"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/pkg/mailer"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("perftrack")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting perftrack service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Run migrations
	if err := database.MigrateModels(
		&model.Permission{},
		&model.Role{},
		&model.User{},
		&model.Tenant{},
		&model.Project{},
		&model.ProjectStatusHistory{},
		&model.PerformanceIndicator{},
		&model.ProjectIndicator{},
		&model.Document{},
		&model.Session{},
		&model.LoginLog{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Seed the permission matrix and canonical roles
	if err := model.SeedRBAC(database.GetDB()); err != nil {
		log.Fatal("Failed to seed roles and permissions", zap.Error(err))
	}
	log.Info("Roles and permissions seeded")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Wire external collaborators and hand them to the handlers
	mailClient := mailer.NewClient(&cfg.Mail, log)
	blobClient := blobstore.NewClient(&cfg.Blob, log)
	handler.Init(cfg, mailClient, blobClient)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - these don't belong under /api since they're
	// for getting access to the API
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/reset-password", handler.ResetPassword)

	// API routes - all require authentication
	api := e.Group("/api/v1")
	api.Use(middleware.AuthMiddleware)

	// Own profile
	api.GET("/profile", handler.GetProfile)
	api.POST("/change-password", handler.ChangePassword)

	// User administration
	users := api.Group("/users")
	users.POST("", handler.CreateUser, middleware.RequirePermission("user:create"))
	users.GET("", handler.ListUsers, middleware.RequirePermission("user:read"))
	users.GET("/:id", handler.GetUser, middleware.RequirePermission("user:read"))
	users.PATCH("/:id", handler.UpdateUser, middleware.RequirePermission("user:update"))
	users.POST("/:id/deactivate", handler.DeactivateUser, middleware.RequirePermission("user:update"))
	users.POST("/:id/activate", handler.ActivateUser, middleware.RequirePermission("user:update"))
	users.POST("/:id/unlock", handler.UnlockUser, middleware.RequirePermission("user:unlock"))
	users.POST("/:id/anonymize", handler.AnonymizeUser, middleware.RequirePermission("user:anonymize"))
	users.DELETE("/:id", handler.DeleteUser, middleware.RequirePermission("user:delete"))

	// Role administration
	roles := api.Group("/roles")
	roles.GET("", handler.ListRoles, middleware.RequirePermission("role:read"))
	roles.POST("", handler.CreateRole, middleware.RequirePermission("role:create"))
	roles.PUT("/:id/permissions", handler.UpdateRolePermissions, middleware.RequirePermission("role:update"))
	api.GET("/permissions", handler.ListPermissions, middleware.RequirePermission("role:read"))

	// Tenant management
	tenants := api.Group("/tenants")
	tenants.POST("", handler.CreateTenant, middleware.RequirePermission("tenant:create"))
	tenants.GET("", handler.ListTenants, middleware.RequirePermission("tenant:read"))
	tenants.GET("/:id", handler.GetTenant, middleware.RequirePermission("tenant:read"))
	tenants.PATCH("/:id", handler.UpdateTenant, middleware.RequirePermission("tenant:update"))
	tenants.POST("/:id/members", handler.AddTenantMember, middleware.RequirePermission("tenant:update"))
	tenants.DELETE("/:id/members/:user_id", handler.RemoveTenantMember, middleware.RequirePermission("tenant:update"))
	tenants.DELETE("/:id", handler.DeleteTenant, middleware.RequirePermission("tenant:delete"))

	// Projects
	projects := api.Group("/projects")
	projects.POST("", handler.CreateProject, middleware.RequirePermission("project:create"))
	projects.GET("", handler.ListProjects, middleware.RequirePermission("project:read"))
	projects.GET("/statistics", handler.GetProjectStatistics, middleware.RequirePermission("dashboard:read"))
	projects.GET("/:id", handler.GetProject, middleware.RequirePermission("project:read"))
	projects.PATCH("/:id", handler.UpdateProject, middleware.RequirePermission("project:update"))
	projects.PUT("/:id/status", handler.UpdateProjectStatus, middleware.RequirePermission("project:update"))
	projects.PUT("/:id/indicators", handler.ReplaceProjectIndicators, middleware.RequirePermission("project:update"))
	projects.DELETE("/:id", handler.DeleteProject, middleware.RequirePermission("project:delete"))

	// Performance indicators
	indicators := api.Group("/indicators")
	indicators.POST("", handler.CreateIndicator, middleware.RequirePermission("indicator:create"))
	indicators.GET("", handler.ListIndicators, middleware.RequirePermission("indicator:read"))
	indicators.GET("/hierarchy", handler.GetIndicatorHierarchy, middleware.RequirePermission("indicator:read"))
	indicators.GET("/:id", handler.GetIndicator, middleware.RequirePermission("indicator:read"))
	indicators.PATCH("/:id", handler.UpdateIndicator, middleware.RequirePermission("indicator:update"))
	indicators.DELETE("/:id", handler.DeleteIndicator, middleware.RequirePermission("indicator:delete"))

	// Documents
	documents := api.Group("/documents")
	documents.POST("", handler.UploadDocument, middleware.RequirePermission("document:create"))
	documents.GET("", handler.ListDocuments, middleware.RequirePermission("document:read"))
	documents.GET("/:id", handler.GetDocument, middleware.RequirePermission("document:read"))
	documents.DELETE("/:id", handler.DeleteDocument, middleware.RequirePermission("document:delete"))

	// Reference data
	api.GET("/countries", handler.ListCountries, middleware.RequirePermission("country:read"))

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
