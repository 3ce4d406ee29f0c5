package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/api/handlers"
	"github.com/nebari-dev/authz/internal/auth"
	"github.com/nebari-dev/authz/internal/config"
	"github.com/nebari-dev/authz/internal/service"
)

// Deps are the collaborators wired into the handlers.
type Deps struct {
	DB       *gorm.DB
	Verifier auth.Verifier
	Policy   service.Authorizer
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Middleware. Recovery sits inside the legacy rewrite so a panic still
	// flushes the buffered response.
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())
	router.Use(legacyAuthMiddleware())
	router.Use(gin.Recovery())
	router.Use(errorMiddleware())

	roles := handlers.NewRoleHandler(service.NewRoleService(deps.DB, deps.Policy))
	orgs := handlers.NewOrganizationHandler(service.NewOrganizationService(deps.DB, deps.Policy))
	health := handlers.NewHealthHandler(deps.DB)

	d := &dispatcher{
		verifier:  deps.Verifier,
		auditUser: auth.AuditIdentity(cfg.M2M),
	}
	d.register(router.Group(cfg.Server.BasePath), Routes(roles, orgs, health))

	router.NoMethod(methodNotAllowed)
	router.NoRoute(notFound)

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	slog.Info("API router initialized", "mode", cfg.Server.Mode, "base_path", cfg.Server.BasePath)
	return router
}
