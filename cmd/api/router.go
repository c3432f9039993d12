package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcmedia-dr/doctor-management-system/internal/config"
	"github.com/bcmedia-dr/doctor-management-system/internal/shared/middleware"
	"github.com/bcmedia-dr/doctor-management-system/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Room for the multipart envelope on top of the workbook itself.
	router.MaxMultipartMemory = c.Config.Import.MaxFileSize + 1<<20

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.CORS.AllowedOrigins),
	)

	router.GET("/health", healthCheckHandler(c.Config.App, map[string]healthChecker{
		"database": c.DB,
		"redis":    c.Redis,
	}))

	v1 := router.Group("/api/v1")
	{
		setupAuthRoutes(v1, c)
		setupDoctorRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	authGroup := v1.Group("/auth")
	authGroup.Use(middleware.RateLimit(c.AuthLimiter))
	{
		authGroup.POST("/login", c.AuthHandler.Login)
		authGroup.POST("/logout", c.AuthHandler.Logout)
		authGroup.GET("/me", c.AuthHandler.Me)
	}
}

// ========================================
// DOCTOR ROUTES
// ========================================
func setupDoctorRoutes(v1 *gin.RouterGroup, c *container.Container) {
	doctors := v1.Group("/doctors")
	doctors.Use(middleware.SessionRequired(c.AuthService, c.Config.Session.CookieName))
	{
		doctors.GET("", c.DoctorHandler.List)
		doctors.POST("", c.DoctorHandler.Create)
		doctors.GET("/stats", c.DoctorHandler.Stats)
		doctors.GET("/export", c.DoctorHandler.Export)
		doctors.POST("/import", c.ImportHandler.Import)
		doctors.GET("/:id", c.DoctorHandler.Get)
		doctors.PUT("/:id", c.DoctorHandler.Update)
		doctors.DELETE("/:id", middleware.AdminRequired(), c.DoctorHandler.Delete)
	}
}

// ========================================
// HEALTH
// ========================================
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func healthCheckHandler(app config.AppConfig, checks map[string]healthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		services := gin.H{}

		for name, checker := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err := checker.HealthCheck(ctx)
			cancel()

			if err != nil {
				services[name] = "error: " + err.Error()
				status = "degraded"
				continue
			}
			services[name] = "ok"
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"name":      app.Name,
			"version":   app.Version,
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  services,
		})
	}
}
