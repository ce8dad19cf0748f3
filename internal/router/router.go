package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/virtual-waiting-room/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/virtual-waiting-room/internal/middleware" // import middleware for the operator JWT guard
)

// RegisterRoutes wires every endpoint of the service onto the provided
// Echo instance. Client-facing endpoints (register, rank, allowed, touch
// and the waiting-room page) are open; the manual promotion trigger and
// the audit listing sit behind the operator JWT guard, which is a no-op
// when no adminSecret is configured.
func RegisterRoutes(e *echo.Echo, h *handler.UserQueueHandler, adminSecret string) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Queue API for end users, matching the paths the reference clients call.
	g := e.Group("/api/v1/queue")
	g.POST("", h.Register)
	g.GET("/allowed", h.Allowed)
	g.GET("/rank", h.RankOf)
	g.GET("/touch", h.Touch)

	// Operator endpoints: manual batch promotion and the audit listing.
	op := e.Group("/api/v1/queue", middleware.OperatorJWT(adminSecret))
	op.POST("/allow", h.Allow)
	op.GET("/batches", h.RecentBatches)

	// The waiting page itself: redirects admitted users, shows the live
	// rank to everyone else.
	e.GET("/waiting-room", h.WaitingRoom)
}
