package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MrFastDie/byceps/internal/model"
	"github.com/MrFastDie/byceps/internal/repository"
	"github.com/MrFastDie/byceps/internal/service"
)

// TicketHandler exposes the attendee-facing ticket endpoints: lookups,
// delegation, and seat management. Authorization is enforced here; the
// service below assumes the initiator has already been cleared.
type TicketHandler struct {
	Tickets    *repository.TicketRepo
	Users      *repository.UserRepo
	Seats      *repository.SeatRepo
	Categories *repository.CategoryRepo
	Service    *service.TicketService
}

func NewTicketHandler(
	tickets *repository.TicketRepo,
	users *repository.UserRepo,
	seats *repository.SeatRepo,
	categories *repository.CategoryRepo,
	svc *service.TicketService,
) *TicketHandler {
	if tickets == nil || users == nil || seats == nil || categories == nil || svc == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{
		Tickets:    tickets,
		Users:      users,
		Seats:      seats,
		Categories: categories,
		Service:    svc,
	}
}

// ----- DTOs -----

type appointUserReq struct {
	UserID     uint64 `json:"user_id"`
	ScreenName string `json:"screen_name"`
}

type appointManagerReq struct {
	UserID uint64 `json:"user_id"`
}

type seatReq struct {
	SeatID uint64 `json:"seat_id"`
}

// ----- lookups -----

// MyTickets returns the non-revoked tickets the caller owns, manages,
// or uses for one party.
func (h *TicketHandler) MyTickets(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	partyID, err := paramUint64(c, "party_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.RelatedToUserForParty(ctx, uid, partyID)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": toTicketResps(tickets)})
}

// AllMyTickets returns the caller's non-revoked tickets across all
// parties.
func (h *TicketHandler) AllMyTickets(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.RelatedToUser(ctx, uid)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": toTicketResps(tickets)})
}

// SeatManagedTickets returns the party's tickets whose seats the
// caller may manage, either by appointment or as owner without an
// override. This is the working set for the seat assignment UI.
func (h *TicketHandler) SeatManagedTickets(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	partyID, err := paramUint64(c, "party_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ForSeatManager(ctx, uid, partyID)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": toTicketResps(tickets)})
}

// MyAttendance reports whether the caller attends the party, along
// with the tickets assigned to them.
func (h *TicketHandler) MyAttendance(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	partyID, err := paramUint64(c, "party_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	attends, err := h.Tickets.UsesAnyTicketForParty(ctx, uid, partyID)
	if err != nil {
		return ticketError(c, err)
	}
	tickets, err := h.Tickets.UsedByUserForParty(ctx, uid, partyID)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"attends": attends,
		"tickets": toTicketResps(tickets),
	})
}

// GetTicket returns a single ticket by ID.
func (h *TicketHandler) GetTicket(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.FindByID(ctx, c.Param("id"))
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, toTicketResp(t))
}

// GetTicketByCode returns a single ticket by its printed code. Used at
// the door when scanning badges.
func (h *TicketHandler) GetTicketByCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.FindByCode(ctx, c.Param("code"))
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, toTicketResp(t))
}

// ----- delegation: user -----

// AppointUser assigns the attendee for a ticket. The target may be
// given by user_id or screen_name. Allowed for the ticket's user
// manager (owner unless overridden) and organizers.
func (h *TicketHandler) AppointUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req appointUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, errResp := h.loadMutableTicket(ctx, c)
	if t == nil {
		return errResp
	}
	if t.UserManagerID() != uid && !isOrga(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	targetID, errResp := h.resolveUser(ctx, c, req)
	if errResp != nil {
		return errResp
	}
	if err := h.Service.AppointUser(ctx, t.ID, targetID, uid); err != nil {
		return ticketError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// WithdrawUser removes the ticket's attendee assignment.
func (h *TicketHandler) WithdrawUser(c echo.Context) error {
	return h.withdraw(c, func(t *model.Ticket, uid uint64) bool {
		return t.UserManagerID() == uid
	}, h.Service.WithdrawUser)
}

// ----- delegation: managers -----

// AppointUserManager lets the owner delegate user management.
func (h *TicketHandler) AppointUserManager(c echo.Context) error {
	return h.appointManager(c, h.Service.AppointUserManager)
}

// WithdrawUserManager removes the user-management delegation; the
// right falls back to the owner.
func (h *TicketHandler) WithdrawUserManager(c echo.Context) error {
	return h.withdraw(c, func(t *model.Ticket, uid uint64) bool {
		return t.OwnedByID == uid
	}, h.Service.WithdrawUserManager)
}

// AppointSeatManager lets the owner delegate seat management.
func (h *TicketHandler) AppointSeatManager(c echo.Context) error {
	return h.appointManager(c, h.Service.AppointSeatManager)
}

// WithdrawSeatManager removes the seat-management delegation.
func (h *TicketHandler) WithdrawSeatManager(c echo.Context) error {
	return h.withdraw(c, func(t *model.Ticket, uid uint64) bool {
		return t.OwnedByID == uid
	}, h.Service.WithdrawSeatManager)
}

// appointManager covers both manager roles; only the owner (or an
// organizer) may delegate.
func (h *TicketHandler) appointManager(c echo.Context, appoint func(ctx context.Context, ticketID string, managerID, initiatorID uint64) error) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req appointManagerReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, errResp := h.loadMutableTicket(ctx, c)
	if t == nil {
		return errResp
	}
	if t.OwnedByID != uid && !isOrga(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := appoint(ctx, t.ID, req.UserID, uid); err != nil {
		return ticketError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// withdraw covers all three withdrawal endpoints; entitled decides who
// may act besides organizers.
func (h *TicketHandler) withdraw(c echo.Context, entitled func(*model.Ticket, uint64) bool, op func(ctx context.Context, ticketID string, initiatorID uint64) error) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, errResp := h.loadMutableTicket(ctx, c)
	if t == nil {
		return errResp
	}
	if !entitled(t, uid) && !isOrga(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := op(ctx, t.ID, uid); err != nil {
		return ticketError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- seat management -----

// OccupySeat claims a seat for the ticket. Allowed for the ticket's
// seat manager (owner unless overridden) and organizers. The seat must
// belong to the ticket's party.
func (h *TicketHandler) OccupySeat(c echo.Context) error {
	return h.seatChange(c, func(ctx context.Context, t *model.Ticket, seatID, uid uint64) error {
		return h.Service.OccupySeat(ctx, t.ID, seatID, uid)
	})
}

// SwitchSeat moves the ticket to another seat in one step. A ticket
// without a seat simply occupies the new one.
func (h *TicketHandler) SwitchSeat(c echo.Context) error {
	return h.seatChange(c, func(ctx context.Context, t *model.Ticket, seatID, uid uint64) error {
		return h.Service.SwitchSeat(ctx, t.ID, seatID, uid)
	})
}

// ReleaseSeat gives up the ticket's seat.
func (h *TicketHandler) ReleaseSeat(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, errResp := h.loadMutableTicket(ctx, c)
	if t == nil {
		return errResp
	}
	if t.SeatManagerID() != uid && !isOrga(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Service.ReleaseSeat(ctx, t.ID, uid); err != nil {
		return ticketError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TicketHandler) seatChange(c echo.Context, op func(ctx context.Context, t *model.Ticket, seatID, uid uint64) error) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req seatReq
	if err := c.Bind(&req); err != nil || req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, errResp := h.loadMutableTicket(ctx, c)
	if t == nil {
		return errResp
	}
	if t.SeatManagerID() != uid && !isOrga(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	// The seat must exist in the seating plan of the ticket's party.
	category, err := h.Categories.FindByID(ctx, t.CategoryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load category failed"})
	}
	if _, err := h.Seats.FindByIDForParty(ctx, req.SeatID, category.PartyID); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seat failed"})
	}

	if err := op(ctx, t, req.SeatID, uid); err != nil {
		return ticketError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- helpers -----

// loadMutableTicket fetches the ticket from the path and rejects
// revoked tickets. Returns (nil, response) when the request was
// already answered.
func (h *TicketHandler) loadMutableTicket(ctx context.Context, c echo.Context) (*model.Ticket, error) {
	t, err := h.Tickets.FindByID(ctx, c.Param("id"))
	if err != nil {
		return nil, ticketError(c, err)
	}
	if t.Revoked {
		return nil, c.JSON(http.StatusConflict, echo.Map{"error": "ticket is revoked"})
	}
	return t, nil
}

// resolveUser turns an appoint request into a user ID, preferring the
// explicit ID over the screen name.
func (h *TicketHandler) resolveUser(ctx context.Context, c echo.Context, req appointUserReq) (uint64, error) {
	if req.UserID != 0 {
		if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}
			return 0, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
		}
		return req.UserID, nil
	}
	screenName := strings.TrimSpace(req.ScreenName)
	if screenName == "" {
		return 0, c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id or screen_name required"})
	}
	u, err := h.Users.GetByScreenName(ctx, screenName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return 0, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return u.ID, nil
}
