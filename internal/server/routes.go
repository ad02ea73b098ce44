package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = JSONErrorHandler()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication; health stays open for load balancers
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	v1.GET("/route", h.Route, h.RequireEnabled("route"))
	v1.GET("/approve", h.Approve, h.RequireEnabled("approve"))
	v1.GET("/balances", h.Balances, h.RequireEnabled("balances"))
	v1.GET("/tokens", h.Tokens, h.RequireEnabled("tokens"))
	v1.GET("/prices/:chainId/:address", h.Price, h.RequireEnabled("prices"))
	v1.GET("/prices/:chainId", h.MultiPrices, h.RequireEnabled("prices"))
	v1.GET("/protocols", h.Protocols, h.RequireEnabled("protocols"))
	v1.GET("/networks", h.Networks, h.RequireEnabled("networks"))
	v1.GET("/aggregators", h.Aggregators, h.RequireEnabled("aggregators"))

	// Bundles are the most expensive upstream call, so they get their own limiter
	bundle := v1.Group("/bundle")
	bundle.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.bundleRate()),
			Burst:     cfg.bundleBurst(),
			ExpiresIn: 2 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded", Code: http.StatusTooManyRequests})
		},
	}))
	bundle.POST("", h.Bundle, h.RequireEnabled("bundle"))

	// Endpoint switches; writes need the gateway key
	writable := requireAPIKey(cfg.APIKey)
	flagGroup := v1.Group("/flags")
	flagGroup.GET("", h.FlagsList)
	flagGroup.POST("", h.FlagsSet, writable)
	flagGroup.GET("/:key", h.FlagsGet)
	flagGroup.PUT("/:key", h.FlagsUpdate, writable)
	flagGroup.DELETE("/:key", h.FlagsDelete, writable)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

// requireAPIKey refuses the request when the gateway runs without API_KEY.
// With a key configured, KeyAuth has already checked it.
func requireAPIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "flag writes are disabled",
					Code:    http.StatusForbidden,
					Details: "set API_KEY to manage endpoint switches",
				})
			}
			return next(c)
		}
	}
}
