package server

import (
	"time"

	"attendance-svc/src/clients"
	"attendance-svc/src/internal/dependency"
	"attendance-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupAttendanceRoutes(router, deps)
	setupAdminRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Info("Health check endpoint requested")

		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	})

	router.GET("health/detailed", func(c *gin.Context) {
		log.Info("Detailed health check endpoint requested")

		c.JSON(200, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(mongodb, c)),
					"redis":   getStatus(isRedisConnected(redisClient.Client, c)),
				},
				"services": gin.H{
					"credentials": "operational",
					"attendance":  "operational",
					"cache":       "operational",
				},
			},
		})
	})
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	// API status endpoint
	router.GET("/api/v1/status", func(c *gin.Context) {
		log.Info("API status requested")
		c.JSON(200, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     "attendance-svc",
		})
	})
}

func setupAttendanceRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := middleware.NewAuthMiddleware(deps.Config.Security.JwtKey)
	handler := deps.AttendanceHandler

	// Apply route name FIRST, then auth middlewares
	staff := router.Group("/api/v1/attendance")
	{
		staff.POST("/check-in",
			setRouteName("checkIn"),
			authMiddleware.RequireAuth(),
			handler.CheckIn)

		staff.POST("/check-out",
			setRouteName("checkOut"),
			authMiddleware.RequireAuth(),
			handler.CheckOut)

		staff.GET("/status/:employeeId",
			setRouteName("attendanceStatus"),
			authMiddleware.RequireAuth(),
			handler.Status)

		staff.GET("/history/:employeeId",
			setRouteName("attendanceHistory"),
			authMiddleware.RequireAuth(),
			handler.History)
	}
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := middleware.NewAuthMiddleware(deps.Config.Security.JwtKey)
	credentialHandler := deps.CredentialHandler
	attendanceHandler := deps.AttendanceHandler

	admin := router.Group("/api/v1/admin")
	{
		admin.POST("/credentials",
			setRouteName("issueCredential"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			credentialHandler.Issue)

		admin.PATCH("/credentials/:id/toggle",
			setRouteName("toggleCredential"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			credentialHandler.ToggleLock)

		admin.GET("/credentials",
			setRouteName("listCredentials"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			credentialHandler.List)

		admin.DELETE("/credentials/:id",
			setRouteName("removeCredential"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			credentialHandler.Remove)

		admin.GET("/attendance/stats",
			setRouteName("attendanceStats"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			attendanceHandler.Stats)
	}
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func isMongoConnected(mongodb *clients.MongoDB, c *gin.Context) bool {
	if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
		return false
	}
	return true
}

func isRedisConnected(redisClient *redis.Client, c *gin.Context) bool {
	if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
		return false
	}
	return true
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
