package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avelara/design-portal/internal/handler"    // import the handlers that implement business logic
	"github.com/avelara/design-portal/internal/metrics"    // prometheus registry plumbing
	"github.com/avelara/design-portal/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/avelara/design-portal/internal/utils"      // role constants for RequireRole
)

// RegisterRoutes registers routes that do not require authentication:
// health, readiness and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB, reg *prometheus.Registry) {
	// Liveness for load balancers; readiness pings the database.
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: they create
	// or exchange tokens themselves.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token; /refresh-access issues a new
	// access token without rotating, for background revalidation.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (revoke all sessions) or a
	// refresh token in the body (revoke one), so it is unauthenticated.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPortal registers the authenticated portal endpoints: profile,
// requests, assets and uploads. Extra middleware (response cache, rate
// limiting) is applied by the caller via mw.
func RegisterPortal(e *echo.Echo, jwtSecret string,
	p *handler.ProfileHandler, r *handler.RequestHandler,
	a *handler.AssetHandler, u *handler.UploadHandler,
	mw ...echo.MiddlewareFunc) {

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(utils.RoleAdmin, utils.RoleClient))
	auth.Use(mw...)

	// Profile: read, explicit edit, post-sign-in reconcile upsert.
	auth.GET("/profile", p.Get)
	auth.PUT("/profile", p.Update)
	auth.POST("/profile/reconcile", p.Reconcile)

	// Requests: submission and tracking. Creation enforces the single
	// active-request slot server-side.
	auth.POST("/requests", r.Create)
	auth.GET("/requests", r.List)
	auth.GET("/requests/active", r.Active)
	auth.GET("/requests/:id", r.Get)

	// Assets: listing grouped by display bucket plus signed downloads.
	auth.GET("/assets", a.List)
	auth.GET("/assets/:id/url", a.SignedURL)

	// Uploads: presigned PUT URLs scoped under the caller's namespace.
	auth.POST("/uploads/presign", u.Presign)

	// Admin-only operations: lifecycle transitions and delivered-asset
	// management.
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(utils.RoleAdmin))
	admin.PATCH("/requests/:id/status", r.UpdateStatus)
	admin.POST("/assets", a.Create)
	admin.DELETE("/assets/:id", a.Delete)
}
