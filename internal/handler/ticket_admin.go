package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MrFastDie/byceps/internal/model"
	"github.com/MrFastDie/byceps/internal/repository"
	"github.com/MrFastDie/byceps/internal/service"
)

// TicketAdminHandler exposes the organizer-only ticket administration
// endpoints: creation batches, bundles, revocation, party-wide
// listings, and the per-ticket event history. All routes are mounted
// behind the ORGA role middleware.
type TicketAdminHandler struct {
	Tickets    *repository.TicketRepo
	Bundles    *repository.TicketBundleRepo
	Events     *repository.TicketEventRepo
	Categories *repository.CategoryRepo
	Users      *repository.UserRepo
	Service    *service.TicketService
}

func NewTicketAdminHandler(
	tickets *repository.TicketRepo,
	bundles *repository.TicketBundleRepo,
	events *repository.TicketEventRepo,
	categories *repository.CategoryRepo,
	users *repository.UserRepo,
	svc *service.TicketService,
) *TicketAdminHandler {
	if tickets == nil || bundles == nil || events == nil || categories == nil || users == nil || svc == nil {
		panic("nil dependency passed to NewTicketAdminHandler")
	}
	return &TicketAdminHandler{
		Tickets:    tickets,
		Bundles:    bundles,
		Events:     events,
		Categories: categories,
		Users:      users,
		Service:    svc,
	}
}

// ----- DTOs -----

type createTicketsReq struct {
	CategoryID  uint64  `json:"category_id"`
	OwnerID     uint64  `json:"owner_id"`
	Quantity    int     `json:"quantity"`
	OrderNumber *string `json:"order_number"`
}

type createBundleReq struct {
	CategoryID uint64 `json:"category_id"`
	OwnerID    uint64 `json:"owner_id"`
	Quantity   int    `json:"quantity"`
}

type revokeTicketsReq struct {
	TicketIDs []string `json:"ticket_ids"`
}

type bundleResp struct {
	ID             string `json:"id"`
	CategoryID     uint64 `json:"category_id"`
	TicketQuantity int    `json:"ticket_quantity"`
	OwnedByID      uint64 `json:"owned_by_id"`
	CreatedAt      string `json:"created_at"`
}

func toBundleResp(b *model.TicketBundle) bundleResp {
	return bundleResp{
		ID:             b.ID,
		CategoryID:     b.CategoryID,
		TicketQuantity: b.TicketQuantity,
		OwnedByID:      b.OwnedByID,
		CreatedAt:      b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

type eventResp struct {
	ID         string         `json:"id"`
	OccurredAt string         `json:"occurred_at"`
	EventType  string         `json:"event_type"`
	Data       map[string]any `json:"data"`
}

// ----- creation -----

// CreateTickets generates a batch of tickets for one category and
// owner.
func (h *TicketAdminHandler) CreateTickets(c echo.Context) error {
	var req createTicketsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if errResp := h.checkCategoryAndOwner(ctx, c, req.CategoryID, req.OwnerID); errResp != nil {
		return errResp
	}
	tickets, err := h.Service.CreateTickets(ctx, req.CategoryID, req.OwnerID, req.Quantity, req.OrderNumber)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"tickets": toTicketResps(tickets)})
}

// CreateBundle creates a bundle and its tickets atomically.
func (h *TicketAdminHandler) CreateBundle(c echo.Context) error {
	var req createBundleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if errResp := h.checkCategoryAndOwner(ctx, c, req.CategoryID, req.OwnerID); errResp != nil {
		return errResp
	}
	bundle, tickets, err := h.Service.CreateTicketBundle(ctx, req.CategoryID, req.Quantity, req.OwnerID)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"bundle":  toBundleResp(bundle),
		"tickets": toTicketResps(tickets),
	})
}

// GetBundle returns a bundle and its tickets.
func (h *TicketAdminHandler) GetBundle(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bundle, err := h.Bundles.FindByID(ctx, c.Param("id"))
	if err != nil {
		return ticketError(c, err)
	}
	tickets, err := h.Tickets.FindForBundle(ctx, bundle.ID)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bundle":  toBundleResp(bundle),
		"tickets": toTicketResps(tickets),
	})
}

// DeleteBundle deletes a bundle and all its tickets.
func (h *TicketAdminHandler) DeleteBundle(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Service.DeleteTicketBundle(ctx, c.Param("id")); err != nil {
		return ticketError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- revocation -----

// RevokeTickets revokes the given tickets in one transaction and
// returns them in their revoked state. When any ID is unknown, nothing
// is revoked.
func (h *TicketAdminHandler) RevokeTickets(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req revokeTicketsReq
	if err := c.Bind(&req); err != nil || len(req.TicketIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_ids required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Service.RevokeTickets(ctx, req.TicketIDs, uid); err != nil {
		return ticketError(c, err)
	}
	tickets, err := h.Tickets.FindByIDs(ctx, req.TicketIDs)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": toTicketResps(tickets)})
}

// ----- listings -----

// ListPartyTickets returns one page of a party's tickets. Query
// parameters: page, per_page, search (code or assigned attendee's
// screen name), in_use (restrict to assigned, non-revoked tickets).
func (h *TicketAdminHandler) ListPartyTickets(c echo.Context) error {
	partyID, err := paramUint64(c, "party_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party id"})
	}
	params := repository.ListParams{
		Search:    c.QueryParam("search"),
		OnlyInUse: strings.EqualFold(c.QueryParam("in_use"), "true"),
	}
	params.Page, _ = strconv.Atoi(c.QueryParam("page"))
	params.PerPage, _ = strconv.Atoi(c.QueryParam("per_page"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListForParty(ctx, partyID, params)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": toTicketResps(tickets)})
}

// OrderTickets returns all tickets a shop order created. Organizers
// use it to trace a purchase to its tickets.
func (h *TicketAdminHandler) OrderTickets(c echo.Context) error {
	orderNumber := strings.TrimSpace(c.Param("order_number"))
	if orderNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order number required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": toTicketResps(tickets)})
}

// PartyTicketStats returns the party's ticket counts. Both counts
// exclude revoked tickets: total is the number of sold tickets, in_use
// the subset with an assigned attendee.
func (h *TicketAdminHandler) PartyTicketStats(c echo.Context) error {
	partyID, err := paramUint64(c, "party_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	total, err := h.Tickets.CountForParty(ctx, partyID)
	if err != nil {
		return ticketError(c, err)
	}
	inUse, err := h.Tickets.CountInUseForParty(ctx, partyID)
	if err != nil {
		return ticketError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "in_use": inUse})
}

// TicketEvents returns a ticket's audit log, oldest first.
func (h *TicketAdminHandler) TicketEvents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tickets.FindByID(ctx, c.Param("id")); err != nil {
		return ticketError(c, err)
	}
	events, err := h.Events.ListForTicket(ctx, c.Param("id"))
	if err != nil {
		return ticketError(c, err)
	}
	out := make([]eventResp, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResp{
			ID:         ev.ID,
			OccurredAt: ev.OccurredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			EventType:  ev.EventType,
			Data:       ev.Data,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// checkCategoryAndOwner validates the create-request references.
// Returns a response when the request was already answered.
func (h *TicketAdminHandler) checkCategoryAndOwner(ctx context.Context, c echo.Context, categoryID, ownerID uint64) error {
	if _, err := h.Categories.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load category failed"})
	}
	if _, err := h.Users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "owner not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load owner failed"})
	}
	return nil
}
