package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MrFastDie/byceps/internal/repository"
)

// AttendanceHandler serves the public attendance views: who attends a
// party, and which parties a user attended. The attendees route sits
// behind the response cache middleware since it is read frequently and
// changes rarely.
type AttendanceHandler struct {
	Attendance *repository.AttendanceRepo
	Parties    *repository.PartyRepo
}

func NewAttendanceHandler(attendance *repository.AttendanceRepo, parties *repository.PartyRepo) *AttendanceHandler {
	if attendance == nil || parties == nil {
		panic("nil repository passed to NewAttendanceHandler")
	}
	return &AttendanceHandler{Attendance: attendance, Parties: parties}
}

type attendeeResp struct {
	UserID     uint64 `json:"user_id"`
	ScreenName string `json:"screen_name"`
}

type partyResp struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// Attendees returns the party's confirmed attendees, i.e. users
// assigned to a non-revoked ticket.
func (h *AttendanceHandler) Attendees(c echo.Context) error {
	partyID, err := paramUint64(c, "party_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Parties.FindByID(ctx, partyID); err != nil {
		if errors.Is(err, repository.ErrPartyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "party not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load party failed"})
	}
	attendees, err := h.Attendance.AttendeesForParty(ctx, partyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load attendees failed"})
	}
	out := make([]attendeeResp, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, attendeeResp{UserID: a.UserID, ScreenName: a.ScreenName})
	}
	return c.JSON(http.StatusOK, echo.Map{"attendees": out})
}

// ArchivePartyAttendance snapshots the party's current attendees into
// the archive table, so attendance history survives once the party's
// tickets are cleaned up. Meant to be run by an organizer after the
// party ends; re-running it is harmless.
func (h *AttendanceHandler) ArchivePartyAttendance(c echo.Context) error {
	partyID, err := paramUint64(c, "party_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Parties.FindByID(ctx, partyID); err != nil {
		if errors.Is(err, repository.ErrPartyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "party not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load party failed"})
	}
	attendees, err := h.Attendance.AttendeesForParty(ctx, partyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load attendees failed"})
	}
	for _, a := range attendees {
		if err := h.Attendance.ArchiveAttendance(ctx, a.UserID, partyID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "archive failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"archived": len(attendees)})
}

// AttendedParties returns the parties a user attended or holds an
// assigned ticket for.
func (h *AttendanceHandler) AttendedParties(c echo.Context) error {
	userID, err := paramUint64(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	parties, err := h.Attendance.AttendedParties(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load parties failed"})
	}
	out := make([]partyResp, 0, len(parties))
	for _, p := range parties {
		out = append(out, partyResp{
			ID:       p.ID,
			Title:    p.Title,
			StartsAt: p.StartsAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			EndsAt:   p.EndsAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"parties": out})
}
