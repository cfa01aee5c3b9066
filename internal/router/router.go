// Package router registers the HTTP routes and their middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/MrFastDie/byceps/internal/handler"
	"github.com/MrFastDie/byceps/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication.
// Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access
// token. Logout deliberately stays outside the JWT middleware so a
// refresh token alone can end a session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ATTENDEE", "ORGA"))
	auth.GET("/me", a.Me)
}

// RegisterTickets registers the attendee-facing ticket endpoints:
// lookups, the three delegation roles, and seat management. All of
// them require a valid access token; fine-grained authorization
// (owner, manager, organizer) happens in the handler.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ATTENDEE", "ORGA"))

	g.GET("/mytickets", h.AllMyTickets)
	g.GET("/parties/:party_id/mytickets", h.MyTickets)
	g.GET("/parties/:party_id/seat_managed_tickets", h.SeatManagedTickets)
	g.GET("/parties/:party_id/attendance", h.MyAttendance)
	g.GET("/tickets/:id", h.GetTicket)
	g.GET("/tickets/code/:code", h.GetTicketByCode)

	g.POST("/tickets/:id/user", h.AppointUser)
	g.DELETE("/tickets/:id/user", h.WithdrawUser)
	g.POST("/tickets/:id/user_manager", h.AppointUserManager)
	g.DELETE("/tickets/:id/user_manager", h.WithdrawUserManager)
	g.POST("/tickets/:id/seat_manager", h.AppointSeatManager)
	g.DELETE("/tickets/:id/seat_manager", h.WithdrawSeatManager)

	g.POST("/tickets/:id/seat", h.OccupySeat)
	g.PUT("/tickets/:id/seat", h.SwitchSeat)
	g.DELETE("/tickets/:id/seat", h.ReleaseSeat)
}

// RegisterAttendance registers the public attendance views. The
// attendee list is hot and rarely changes, so it sits behind the
// response cache.
func RegisterAttendance(e *echo.Echo, h *handler.AttendanceHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/parties/:party_id/attendees", h.Attendees, cache)
	e.GET("/v1/users/:id/attended_parties", h.AttendedParties)
}

// RegisterTicketAdmin registers the organizer-only administration
// endpoints under /v1/admin.
func RegisterTicketAdmin(e *echo.Echo, h *handler.TicketAdminHandler, att *handler.AttendanceHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ORGA"))

	g.POST("/tickets", h.CreateTickets)
	g.POST("/tickets/revoke", h.RevokeTickets)
	g.GET("/tickets/:id/events", h.TicketEvents)

	g.POST("/bundles", h.CreateBundle)
	g.GET("/bundles/:id", h.GetBundle)
	g.DELETE("/bundles/:id", h.DeleteBundle)

	g.GET("/orders/:order_number/tickets", h.OrderTickets)

	g.GET("/parties/:party_id/tickets", h.ListPartyTickets)
	g.GET("/parties/:party_id/ticket_stats", h.PartyTicketStats)
	g.POST("/parties/:party_id/archive_attendance", att.ArchivePartyAttendance)
}
