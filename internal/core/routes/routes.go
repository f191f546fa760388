package routes

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/core/container"
	"github.com/aleciaid/crm-bj/internal/middleware"
	"github.com/aleciaid/crm-bj/pkg/roles"
	"github.com/aleciaid/crm-bj/pkg/security"
)

const requestTimeout = 30 * time.Second

// NewRouter builds the engine with every route of the service.
func NewRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(c.Logger),
		middleware.RequestLogger(c.Logger),
		middleware.TimeoutMiddleware(requestTimeout),
	)

	RegisterUtilityRoutes(router, c)
	RegisterPublicRoutes(router, c)
	RegisterProtectedRoutes(router, c)
	return router
}

func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	container.LoginHandler.RegisterRoutes(router)
	container.GuestHandler.RegisterRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(container.Tokens.JWTMiddleware())

	container.LoginHandler.RegisterProtectedRoutes(protectedRoutes)
	container.AssetHandler.RegisterRoutes(protectedRoutes)
	container.CategoryHandler.RegisterRoutes(protectedRoutes)
	container.LoanHandler.RegisterRoutes(protectedRoutes)
	container.LogHandler.RegisterRoutes(protectedRoutes)

	adminRoutes := protectedRoutes.Group("")
	adminRoutes.Use(security.Authorize(roles.Admin))

	container.UserHandler.RegisterRoutes(adminRoutes)
	container.LogHandler.RegisterAdminRoutes(adminRoutes)
	container.WebhookHandler.RegisterRoutes(adminRoutes)
	container.ExchangeHandler.RegisterRoutes(adminRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, container *container.Container) {
	router.GET("/health", container.Health.Handler())

	openapiFilePath := "./docs/index.html"
	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(c *gin.Context) {
			c.File(openapiFilePath)
		})
		container.Logger.Info("Route /openapi.html registered", zap.String("file", openapiFilePath))
	}
}
