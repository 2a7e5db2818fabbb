package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shelfscan/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/devices", handler.ListDevices)

		scan := v1.Group("/scan")
		{
			scan.POST("/start", handler.StartScan)
			scan.POST("/stop", handler.StopScan)
			scan.GET("/status", handler.ScanStatus)
		}

		v1.GET("/isbn/:code/validate", handler.ValidateISBN)
		v1.GET("/books/:isbn", handler.LookupBook)
	}

	return router
}
