package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/MrFastDie/byceps/internal/model"
	"github.com/MrFastDie/byceps/internal/repository"
	"github.com/MrFastDie/byceps/internal/service"
)

// RoleOrga marks organizers; they may administer tickets for any party.
const RoleOrga = "ORGA"

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT numeric claims arrive as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isOrga reports whether the authenticated caller has the organizer
// role.
func isOrga(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == RoleOrga
}

// paramUint64 parses a numeric path parameter.
func paramUint64(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// ticketError translates sentinel errors from the ticket core into
// HTTP responses. Anything unrecognized becomes a 500.
func ticketError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, service.ErrBundleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bundle not found"})
	case errors.Is(err, service.ErrInvalidQuantity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be at least 1"})
	case errors.Is(err, service.ErrSeatChangeDeniedForBundledTicket):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat changes are denied for bundled tickets"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already occupied"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// ----- shared DTOs -----

type ticketResp struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	CategoryID      uint64  `json:"category_id"`
	OwnedByID       uint64  `json:"owned_by_id"`
	OrderNumber     *string `json:"order_number,omitempty"`
	SeatManagedByID *uint64 `json:"seat_managed_by_id,omitempty"`
	UserManagedByID *uint64 `json:"user_managed_by_id,omitempty"`
	UsedByID        *uint64 `json:"used_by_id,omitempty"`
	OccupiedSeatID  *uint64 `json:"occupied_seat_id,omitempty"`
	BundleID        *string `json:"bundle_id,omitempty"`
	Revoked         bool    `json:"revoked"`
	CreatedAt       string  `json:"created_at"`
}

func toTicketResp(t *model.Ticket) ticketResp {
	return ticketResp{
		ID:              t.ID,
		Code:            t.Code,
		CategoryID:      t.CategoryID,
		OwnedByID:       t.OwnedByID,
		OrderNumber:     t.OrderNumber,
		SeatManagedByID: t.SeatManagedByID,
		UserManagedByID: t.UserManagedByID,
		UsedByID:        t.UsedByID,
		OccupiedSeatID:  t.OccupiedSeatID,
		BundleID:        t.BundleID,
		Revoked:         t.Revoked,
		CreatedAt:       t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toTicketResps(tickets []*model.Ticket) []ticketResp {
	out := make([]ticketResp, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResp(t))
	}
	return out
}
