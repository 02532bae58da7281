package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/loanpro/lending-system/internal/api/handler"
	"github.com/loanpro/lending-system/internal/api/middleware"
	"github.com/loanpro/lending-system/internal/core/domain"
	"github.com/loanpro/lending-system/internal/core/ports"
)

// RouterDeps carries everything the router needs wired in from main.
type RouterDeps struct {
	DB           *mongo.Database
	Redis        *redis.Client
	JWTSecret    string
	Applications ports.ApplicationService
	Auth         ports.AuthService
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("lending"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	appHandler := handler.NewApplicationHandler(deps.Applications)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	authMiddleware := middleware.Auth(deps.JWTSecret)
	backOffice := middleware.RBAC(domain.RoleAdmin, domain.RoleReviewer)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Public application routes ---
	v1 := e.Group("/v1")
	v1.POST("/applications", appHandler.Submit)
	v1.POST("/applications/lookup", appHandler.Lookup)
	v1.GET("/applications/:id", appHandler.Get)

	// --- Back-office application routes ---
	v1.GET("/applications", appHandler.List, authMiddleware, backOffice)
	v1.PATCH("/applications/:id/status", appHandler.Transition, authMiddleware, backOffice)
	v1.GET("/applications/:id/audit", appHandler.Audit, authMiddleware, backOffice)
	v1.DELETE("/applications/:id", appHandler.Delete, authMiddleware, adminOnly)
	v1.GET("/admin/stats", appHandler.Stats, authMiddleware, adminOnly)

	// --- Operational endpoints ---
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
