// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tresh-api/internal/config"
	"github.com/iliyamo/tresh-api/internal/handler"
	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/middleware"
)

// Deps is everything the routes need. Redis may be nil, in which case
// rate limiting and caching are pass-through.
type Deps struct {
	Auth      *handler.AuthHandler
	Todo      *handler.TodoHandler
	DB        handler.Pinger
	JWTSecret []byte
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Log       logging.Logger
}

// RegisterRoutes registers unauthenticated routes. At the moment only the
// health check.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
}

// RegisterAuth registers /api/auth. Every auth route is rate limited;
// logout-all additionally needs a valid access token.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/api/auth", middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh-token", d.Auth.RefreshToken)
	g.POST("/logout", d.Auth.Logout)
	g.POST("/logout-all", d.Auth.LogoutAll, middleware.JWTAuth(d.JWTSecret))
}

// RegisterTodo registers the bearer-protected todo CRUD. GETs are served
// from the Redis cache and successful writes invalidate it.
func RegisterTodo(e *echo.Echo, d Deps) {
	g := e.Group("/api/todo",
		middleware.JWTAuth(d.JWTSecret),
		middleware.NewRedisCache(d.Cache, d.Redis, d.Log),
		middleware.InvalidateCache(d.Cache, d.Redis, d.Log),
	)
	g.GET("", d.Todo.List)
	g.GET("/:id", d.Todo.Get)
	g.POST("", d.Todo.Create)
	g.PUT("/:id", d.Todo.Update)
	g.DELETE("/:id", d.Todo.Delete)
}

// New builds the echo instance with request logging, panic recovery, the
// validator and every route group.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	// logger outermost so recovered panics still get a request line
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())

	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterTodo(e, d)
	return e
}
