package router // defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/queueup/waitlist/internal/config"
	"github.com/queueup/waitlist/internal/handler"
	"github.com/queueup/waitlist/internal/middleware"
)

// RegisterRoutes wires the public waitlist endpoints, the admin surface
// and the health check onto the provided Echo instance.  The public group
// is guarded by the Redis token-bucket rate limiter (a no-op when rdb is
// nil); the admin group, apart from login, requires a valid operator JWT.
func RegisterRoutes(e *echo.Echo, q *handler.QueueHandler, a *handler.AdminHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Public customer-facing endpoints.
	pub := e.Group("/api/queue")
	pub.Use(middleware.NewTokenBucket(rlCfg, rdb))
	pub.GET("", q.List)
	pub.POST("", q.Join)
	pub.GET("/phone/:phoneNumber", q.GetByPhone)
	pub.GET("/:id", q.Get)
	pub.PATCH("/:id/cancel", q.Cancel)
	pub.GET("/:id/position", q.Position)

	// Operator login does not require a session.
	e.POST("/api/admin/login", a.Login)

	// Everything else under /api/admin requires a valid admin token.
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(handler.AdminRole))
	admin.POST("/call/:id", a.Call)
	admin.POST("/complete/:id", a.Complete)
	admin.GET("/entries", a.Entries)
	admin.GET("/stats", a.Stats)
	admin.GET("/analytics", a.DetailedAnalytics)
}
