package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/internal/auth"
	"github.com/resourcebook/backend/internal/bookings"
	"github.com/resourcebook/backend/internal/exports"
	"github.com/resourcebook/backend/internal/metrics"
	"github.com/resourcebook/backend/internal/middleware"
	"github.com/resourcebook/backend/internal/organizations"
	"github.com/resourcebook/backend/internal/realtime"
	"github.com/resourcebook/backend/internal/resources"
	"github.com/resourcebook/backend/internal/users"
	"github.com/resourcebook/backend/pkg/response"
)

// handlers groups everything the router mounts. Exports is nil when no bucket is configured.
type handlers struct {
	auth          *auth.Handler
	bookings      *bookings.Handler
	resources     *resources.Handler
	users         *users.Handler
	organizations *organizations.Handler
	exports       *exports.Handler
	hub           *realtime.Hub
	health        func(c *gin.Context) error
}

type routerOptions struct {
	cors           middleware.CORSPolicy
	loginPerSecond float64
	loginBurst     int
}

func newRouter(h handlers, jwtService *auth.JWTService, opts routerOptions, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(opts.cors))
	router.Use(middleware.Logger(logger))

	// Ops
	router.GET("/health", func(c *gin.Context) {
		if h.health != nil {
			if err := h.health(c); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				response.ServiceUnavailable(c, "dependency unavailable")
				return
			}
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	// Auth (public, rate limited per client IP)
	authLimit := middleware.RateLimit(opts.loginPerSecond, opts.loginBurst)
	router.POST("/auth/login", authLimit, h.auth.Login)
	router.POST("/auth/register", authLimit, h.auth.Register)

	// WebSocket (token in query or Authorization header)
	router.GET("/ws", realtime.ServeWs(h.hub, logger, func(token string) (access.Claims, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return access.Claims{}, err
		}
		return claims.Identity(), nil
	}))

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", h.users.Me)

		// Bookings
		api.POST("/bookings", middleware.RequireOperation(access.BookingCreate), h.bookings.Create)
		api.GET("/bookings", middleware.RequireOperation(access.BookingList), h.bookings.List)
		api.GET("/bookings/in-progress", middleware.RequireOperation(access.BookingList), h.bookings.ListInProgress)
		api.GET("/bookings/user/:userId", middleware.RequireOperation(access.BookingList), h.bookings.ListByUser)
		api.GET("/bookings/user/:userId/pending", middleware.RequireOperation(access.BookingList), h.bookings.ListPendingByUser)
		api.GET("/bookings/resource/:resourceId", middleware.RequireOperation(access.BookingList), h.bookings.ListByResource)
		api.GET("/bookings/status/:status", middleware.RequireOperation(access.BookingList), h.bookings.ListByStatus)
		api.GET("/bookings/:id", middleware.RequireOperation(access.BookingRead), h.bookings.Get)
		api.PUT("/bookings/:id/approve", middleware.RequireOperation(access.BookingTransition), h.bookings.Approve)
		api.PUT("/bookings/:id/start", middleware.RequireOperation(access.BookingTransition), h.bookings.Start)
		api.PUT("/bookings/:id/complete", middleware.RequireOperation(access.BookingTransition), h.bookings.Complete)
		api.PUT("/bookings/:id/cancel", middleware.RequireOperation(access.BookingCancel), h.bookings.Cancel)
		api.DELETE("/bookings/:id", middleware.RequireOperation(access.BookingDelete), h.bookings.Delete)
		if h.exports != nil {
			api.POST("/bookings/exports", middleware.RequireOperation(access.BookingExport), h.exports.Create)
			api.GET("/bookings/exports/:id", middleware.RequireOperation(access.BookingExport), h.exports.Get)
		}

		// Resources
		api.POST("/resources", middleware.RequireOperation(access.ResourceManage), h.resources.Create)
		api.GET("/resources", middleware.RequireOperation(access.ResourceRead), h.resources.List)
		api.DELETE("/resources", middleware.RequireOperation(access.ResourceManage), h.resources.DeleteAll)
		api.GET("/resources/name/:name", middleware.RequireOperation(access.ResourceRead), h.resources.GetByName)
		api.GET("/resources/:id", middleware.RequireOperation(access.ResourceRead), h.resources.Get)
		api.PUT("/resources/:id", middleware.RequireOperation(access.ResourceManage), h.resources.Update)
		api.PUT("/resources/:id/toggle-status", middleware.RequireOperation(access.ResourceManage), h.resources.ToggleStatus)
		api.DELETE("/resources/:id", middleware.RequireOperation(access.ResourceManage), h.resources.Delete)

		// Users
		api.POST("/users", middleware.RequireOperation(access.UserManage), h.users.Create)
		api.GET("/users", middleware.RequireOperation(access.UserManage), h.users.List)
		api.GET("/users/email/:email", middleware.RequireOperation(access.UserManage), h.users.GetByEmail)
		api.GET("/users/:id", middleware.RequireOperation(access.UserManage), h.users.Get)
		api.PUT("/users/:id", middleware.RequireOperation(access.UserManage), h.users.Update)
		api.DELETE("/users/:id", middleware.RequireOperation(access.UserManage), h.users.Delete)

		// Organizations
		orgs := api.Group("/organizations", middleware.RequireOperation(access.OrganizationManage))
		orgs.POST("", h.organizations.Create)
		orgs.GET("", h.organizations.List)
		orgs.GET("/name/:name", h.organizations.GetByName)
		orgs.GET("/:id", h.organizations.Get)
		orgs.PUT("/:id", h.organizations.Update)
		orgs.DELETE("/:id", h.organizations.Delete)
		orgs.POST("/:id/managers", h.users.CreateManager)
	}
	return router
}
