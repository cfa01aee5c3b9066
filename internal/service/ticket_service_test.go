package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrFastDie/byceps/internal/model"
)

// fakeStore is an in-memory Store. Units of work stage their mutations
// and only apply them on Commit, mirroring the transactional contract
// the repository implementation provides.
type fakeStore struct {
	tickets map[string]*model.Ticket
	bundles map[string]*model.TicketBundle
	events  []*model.TicketEvent

	// insertConflicts makes the next N InsertTickets calls fail with
	// ErrCodeConflict, simulating a collision on the code unique index.
	insertConflicts int
	insertAttempts  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tickets: map[string]*model.Ticket{},
		bundles: map[string]*model.TicketBundle{},
	}
}

func (s *fakeStore) Begin(ctx context.Context) (UnitOfWork, error) {
	return &fakeUnitOfWork{store: s}, nil
}

func (s *fakeStore) eventsForTicket(ticketID string) []*model.TicketEvent {
	var out []*model.TicketEvent
	for _, ev := range s.events {
		if ev.TicketID == ticketID {
			out = append(out, ev)
		}
	}
	return out
}

type fakeUnitOfWork struct {
	store     *fakeStore
	committed bool

	stagedTickets  []*model.Ticket
	stagedBundles  []*model.TicketBundle
	updatedTickets []*model.Ticket
	deletedBundles []string
	stagedEvents   []*model.TicketEvent
}

func copyTicket(t *model.Ticket) *model.Ticket {
	c := *t
	return &c
}

func (u *fakeUnitOfWork) TicketByID(ctx context.Context, id string) (*model.Ticket, error) {
	t, ok := u.store.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return copyTicket(t), nil
}

func (u *fakeUnitOfWork) TicketsByIDs(ctx context.Context, ids []string) ([]*model.Ticket, error) {
	out := make([]*model.Ticket, 0, len(ids))
	for _, id := range ids {
		t, err := u.TicketByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (u *fakeUnitOfWork) InsertTickets(ctx context.Context, tickets []*model.Ticket) error {
	u.store.insertAttempts++
	if u.store.insertConflicts > 0 {
		u.store.insertConflicts--
		return ErrCodeConflict
	}
	u.stagedTickets = append(u.stagedTickets, tickets...)
	return nil
}

func (u *fakeUnitOfWork) InsertBundle(ctx context.Context, b *model.TicketBundle) error {
	u.stagedBundles = append(u.stagedBundles, b)
	return nil
}

func (u *fakeUnitOfWork) BundleByID(ctx context.Context, id string) (*model.TicketBundle, error) {
	b, ok := u.store.bundles[id]
	if !ok {
		return nil, ErrBundleNotFound
	}
	c := *b
	return &c, nil
}

func (u *fakeUnitOfWork) DeleteBundle(ctx context.Context, id string) (int64, error) {
	u.deletedBundles = append(u.deletedBundles, id)
	var n int64
	for _, t := range u.store.tickets {
		if t.BundleID != nil && *t.BundleID == id {
			n++
		}
	}
	return n, nil
}

func (u *fakeUnitOfWork) UpdateTicket(ctx context.Context, t *model.Ticket) error {
	u.updatedTickets = append(u.updatedTickets, copyTicket(t))
	return nil
}

func (u *fakeUnitOfWork) InsertEvent(ctx context.Context, ev *model.TicketEvent) error {
	u.stagedEvents = append(u.stagedEvents, ev)
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	for _, t := range u.stagedTickets {
		u.store.tickets[t.ID] = copyTicket(t)
	}
	for _, b := range u.stagedBundles {
		c := *b
		u.store.bundles[b.ID] = &c
	}
	for _, t := range u.updatedTickets {
		u.store.tickets[t.ID] = copyTicket(t)
	}
	for _, id := range u.deletedBundles {
		for tid, t := range u.store.tickets {
			if t.BundleID != nil && *t.BundleID == id {
				delete(u.store.tickets, tid)
			}
		}
		delete(u.store.bundles, id)
	}
	u.store.events = append(u.store.events, u.stagedEvents...)
	u.committed = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	// No-op after commit; staged mutations are simply dropped otherwise.
	return nil
}

// capturingPublisher records every event handed to it.
type capturingPublisher struct {
	published []*model.TicketEvent
}

func (p *capturingPublisher) PublishTicketEvent(ctx context.Context, ev *model.TicketEvent) {
	p.published = append(p.published, ev)
}

func seedTicket(store *fakeStore, mutate func(*model.Ticket)) *model.Ticket {
	t := &model.Ticket{
		ID:         "ticket-1",
		Code:       "BCDFG",
		CategoryID: 10,
		OwnedByID:  100,
	}
	if mutate != nil {
		mutate(t)
	}
	store.tickets[t.ID] = t
	return t
}

func ptrU64(v uint64) *uint64 { return &v }
func ptrStr(v string) *string { return &v }

// ----- creation -----

func TestCreateTickets_DistinctCodesWithinBatch(t *testing.T) {
	store := newFakeStore()
	svc := NewTicketService(store, nil)

	tickets, err := svc.CreateTickets(context.Background(), 10, 100, 30, nil)
	require.NoError(t, err)
	require.Len(t, tickets, 30)

	codes := map[string]struct{}{}
	for _, tk := range tickets {
		assert.Len(t, tk.Code, 5)
		assert.Equal(t, uint64(10), tk.CategoryID)
		assert.Equal(t, uint64(100), tk.OwnedByID)
		assert.Nil(t, tk.BundleID)
		assert.False(t, tk.Revoked)
		_, dup := codes[tk.Code]
		assert.False(t, dup, "duplicate code in batch: %s", tk.Code)
		codes[tk.Code] = struct{}{}
	}
	assert.Len(t, store.tickets, 30)
}

func TestCreateTickets_QuantityFloor(t *testing.T) {
	store := newFakeStore()
	svc := NewTicketService(store, nil)

	for _, quantity := range []int{0, -1} {
		_, err := svc.CreateTickets(context.Background(), 10, 100, quantity, nil)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", quantity)
	}
	assert.Empty(t, store.tickets)
}

func TestCreateTickets_CarriesOrderNumber(t *testing.T) {
	store := newFakeStore()
	svc := NewTicketService(store, nil)

	order := "ORDER-2026-0042"
	tickets, err := svc.CreateTickets(context.Background(), 10, 100, 2, &order)
	require.NoError(t, err)
	for _, tk := range tickets {
		require.NotNil(t, tk.OrderNumber)
		assert.Equal(t, order, *tk.OrderNumber)
	}
}

func TestCreateTickets_RetriesOnCodeConflict(t *testing.T) {
	store := newFakeStore()
	store.insertConflicts = 1
	svc := NewTicketService(store, nil)

	tickets, err := svc.CreateTickets(context.Background(), 10, 100, 3, nil)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
	assert.Equal(t, 2, store.insertAttempts)
}

func TestCreateTickets_GivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newFakeStore()
	store.insertConflicts = maxCodeConflictRetries
	svc := NewTicketService(store, nil)

	_, err := svc.CreateTickets(context.Background(), 10, 100, 3, nil)
	assert.ErrorIs(t, err, ErrCodeConflict)
	assert.Empty(t, store.tickets)
}

func TestCreateTicketBundle_Atomic(t *testing.T) {
	store := newFakeStore()
	svc := NewTicketService(store, nil)

	bundle, tickets, err := svc.CreateTicketBundle(context.Background(), 10, 3, 100)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	require.Len(t, tickets, 3)

	assert.Equal(t, 3, bundle.TicketQuantity)
	assert.Equal(t, uint64(10), bundle.CategoryID)
	assert.Equal(t, uint64(100), bundle.OwnedByID)
	for _, tk := range tickets {
		require.NotNil(t, tk.BundleID)
		assert.Equal(t, bundle.ID, *tk.BundleID)
		assert.Equal(t, bundle.CategoryID, tk.CategoryID)
		assert.Equal(t, bundle.OwnedByID, tk.OwnedByID)
	}
	assert.Contains(t, store.bundles, bundle.ID)
}

func TestCreateTicketBundle_QuantityFloor(t *testing.T) {
	svc := NewTicketService(newFakeStore(), nil)
	_, _, err := svc.CreateTicketBundle(context.Background(), 10, 0, 100)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeleteTicketBundle_Cascades(t *testing.T) {
	store := newFakeStore()
	svc := NewTicketService(store, nil)

	bundle, tickets, err := svc.CreateTicketBundle(context.Background(), 10, 3, 100)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTicketBundle(context.Background(), bundle.ID))
	assert.NotContains(t, store.bundles, bundle.ID)
	for _, tk := range tickets {
		assert.NotContains(t, store.tickets, tk.ID)
	}
}

func TestDeleteTicketBundle_Unknown(t *testing.T) {
	svc := NewTicketService(newFakeStore(), nil)
	err := svc.DeleteTicketBundle(context.Background(), "no-such-bundle")
	assert.ErrorIs(t, err, ErrBundleNotFound)
}

// ----- revocation -----

func TestRevokeTicket_LeavesSeatAndDelegationsAlone(t *testing.T) {
	store := newFakeStore()
	seedTicket(store, func(tk *model.Ticket) {
		tk.OccupiedSeatID = ptrU64(7)
		tk.SeatManagedByID = ptrU64(200)
		tk.UserManagedByID = ptrU64(201)
		tk.UsedByID = ptrU64(202)
	})
	svc := NewTicketService(store, nil)

	require.NoError(t, svc.RevokeTicket(context.Background(), "ticket-1", 999))

	got := store.tickets["ticket-1"]
	assert.True(t, got.Revoked)
	assert.Equal(t, ptrU64(7), got.OccupiedSeatID)
	assert.Equal(t, ptrU64(200), got.SeatManagedByID)
	assert.Equal(t, ptrU64(201), got.UserManagedByID)
	assert.Equal(t, ptrU64(202), got.UsedByID)

	events := store.eventsForTicket("ticket-1")
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTicketRevoked, events[0].EventType)
	assert.Equal(t, "999", events[0].Data["initiator_id"])
}

func TestRevokeTickets_UnknownIDRevokesNothing(t *testing.T) {
	store := newFakeStore()
	seedTicket(store, nil)
	svc := NewTicketService(store, nil)

	err := svc.RevokeTickets(context.Background(), []string{"ticket-1", "missing"}, 999)
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.False(t, store.tickets["ticket-1"].Revoked)
	assert.Empty(t, store.events)
}

// ----- delegation -----

func TestDelegationRoundTrip_UserManager(t *testing.T) {
	store := newFakeStore()
	seedTicket(store, nil)
	pub := &capturingPublisher{}
	svc := NewTicketService(store, pub)
	ctx := context.Background()

	require.NoError(t, svc.AppointUserManager(ctx, "ticket-1", 55, 100))
	require.NotNil(t, store.tickets["ticket-1"].UserManagedByID)
	assert.Equal(t, uint64(55), *store.tickets["ticket-1"].UserManagedByID)

	require.NoError(t, svc.WithdrawUserManager(ctx, "ticket-1", 100))
	assert.Nil(t, store.tickets["ticket-1"].UserManagedByID)

	events := store.eventsForTicket("ticket-1")
	require.Len(t, events, 2)
	assert.Equal(t, model.EventUserManagerAppointed, events[0].EventType)
	assert.Equal(t, "55", events[0].Data["appointed_user_manager_id"])
	assert.Equal(t, "100", events[0].Data["initiator_id"])
	assert.Equal(t, model.EventUserManagerWithdrawn, events[1].EventType)
	assert.Equal(t, "100", events[1].Data["initiator_id"])

	// Committed events were also handed to the publisher, in order.
	require.Len(t, pub.published, 2)
	assert.Equal(t, events[0].ID, pub.published[0].ID)
	assert.Equal(t, events[1].ID, pub.published[1].ID)
}

func TestDelegationTriplet_AppointAndWithdraw(t *testing.T) {
	type roleCase struct {
		name                      string
		appoint                   func(svc *TicketService, ctx context.Context) error
		withdraw                  func(svc *TicketService, ctx context.Context) error
		field                     func(tk *model.Ticket) *uint64
		appointType, withdrawType string
	}
	cases := []roleCase{
		{
			name: "seat manager",
			appoint: func(svc *TicketService, ctx context.Context) error {
				return svc.AppointSeatManager(ctx, "ticket-1", 55, 100)
			},
			withdraw: func(svc *TicketService, ctx context.Context) error {
				return svc.WithdrawSeatManager(ctx, "ticket-1", 100)
			},
			field:        func(tk *model.Ticket) *uint64 { return tk.SeatManagedByID },
			appointType:  model.EventSeatManagerAppointed,
			withdrawType: model.EventSeatManagerWithdrawn,
		},
		{
			name: "user manager",
			appoint: func(svc *TicketService, ctx context.Context) error {
				return svc.AppointUserManager(ctx, "ticket-1", 55, 100)
			},
			withdraw: func(svc *TicketService, ctx context.Context) error {
				return svc.WithdrawUserManager(ctx, "ticket-1", 100)
			},
			field:        func(tk *model.Ticket) *uint64 { return tk.UserManagedByID },
			appointType:  model.EventUserManagerAppointed,
			withdrawType: model.EventUserManagerWithdrawn,
		},
		{
			name: "user",
			appoint: func(svc *TicketService, ctx context.Context) error {
				return svc.AppointUser(ctx, "ticket-1", 55, 100)
			},
			withdraw: func(svc *TicketService, ctx context.Context) error {
				return svc.WithdrawUser(ctx, "ticket-1", 100)
			},
			field:        func(tk *model.Ticket) *uint64 { return tk.UsedByID },
			appointType:  model.EventUserAppointed,
			withdrawType: model.EventUserWithdrawn,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			seedTicket(store, nil)
			svc := NewTicketService(store, nil)
			ctx := context.Background()

			require.NoError(t, tc.appoint(svc, ctx))
			require.NotNil(t, tc.field(store.tickets["ticket-1"]))
			assert.Equal(t, uint64(55), *tc.field(store.tickets["ticket-1"]))

			require.NoError(t, tc.withdraw(svc, ctx))
			assert.Nil(t, tc.field(store.tickets["ticket-1"]))

			events := store.eventsForTicket("ticket-1")
			require.Len(t, events, 2)
			assert.Equal(t, tc.appointType, events[0].EventType)
			assert.Equal(t, tc.withdrawType, events[1].EventType)
		})
	}
}

func TestAppoint_UnknownTicket(t *testing.T) {
	svc := NewTicketService(newFakeStore(), nil)
	err := svc.AppointUser(context.Background(), "missing", 55, 100)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

// ----- seat occupation -----

func TestOccupySwitchRelease(t *testing.T) {
	store := newFakeStore()
	seedTicket(store, nil)
	svc := NewTicketService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.OccupySeat(ctx, "ticket-1", 7, 100))
	require.NotNil(t, store.tickets["ticket-1"].OccupiedSeatID)
	assert.Equal(t, uint64(7), *store.tickets["ticket-1"].OccupiedSeatID)

	require.NoError(t, svc.SwitchSeat(ctx, "ticket-1", 8, 100))
	assert.Equal(t, uint64(8), *store.tickets["ticket-1"].OccupiedSeatID)

	require.NoError(t, svc.ReleaseSeat(ctx, "ticket-1", 100))
	assert.Nil(t, store.tickets["ticket-1"].OccupiedSeatID)

	events := store.eventsForTicket("ticket-1")
	require.Len(t, events, 3)
	assert.Equal(t, model.EventSeatOccupied, events[0].EventType)
	assert.Equal(t, "7", events[0].Data["seat_id"])
	assert.Equal(t, model.EventSeatSwitched, events[1].EventType)
	assert.Equal(t, "7", events[1].Data["old_seat_id"])
	assert.Equal(t, "8", events[1].Data["new_seat_id"])
	assert.Equal(t, model.EventSeatReleased, events[2].EventType)
}

func TestSwitchSeat_FromUnseated(t *testing.T) {
	store := newFakeStore()
	seedTicket(store, nil)
	svc := NewTicketService(store, nil)

	require.NoError(t, svc.SwitchSeat(context.Background(), "ticket-1", 8, 100))
	require.NotNil(t, store.tickets["ticket-1"].OccupiedSeatID)
	assert.Equal(t, uint64(8), *store.tickets["ticket-1"].OccupiedSeatID)

	events := store.eventsForTicket("ticket-1")
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Data["old_seat_id"], "previously unseated switch records a null old seat")
	assert.Equal(t, "8", events[0].Data["new_seat_id"])
}

func TestSeatOps_DeniedForBundledTicket(t *testing.T) {
	ops := map[string]func(svc *TicketService, ctx context.Context) error{
		"occupy": func(svc *TicketService, ctx context.Context) error {
			return svc.OccupySeat(ctx, "ticket-1", 7, 100)
		},
		"switch": func(svc *TicketService, ctx context.Context) error {
			return svc.SwitchSeat(ctx, "ticket-1", 7, 100)
		},
		"release": func(svc *TicketService, ctx context.Context) error {
			return svc.ReleaseSeat(ctx, "ticket-1", 100)
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			seedTicket(store, func(tk *model.Ticket) {
				tk.BundleID = ptrStr("bundle-1")
				tk.OccupiedSeatID = ptrU64(3)
			})
			pub := &capturingPublisher{}
			svc := NewTicketService(store, pub)

			err := op(svc, context.Background())
			assert.ErrorIs(t, err, ErrSeatChangeDeniedForBundledTicket)

			// Neither state nor event log may change.
			assert.Equal(t, ptrU64(3), store.tickets["ticket-1"].OccupiedSeatID)
			assert.Empty(t, store.events)
			assert.Empty(t, pub.published)
		})
	}
}

// ----- model helpers -----

func TestTicket_ManagerFallbacks(t *testing.T) {
	tk := &model.Ticket{OwnedByID: 100}
	assert.Equal(t, uint64(100), tk.SeatManagerID())
	assert.Equal(t, uint64(100), tk.UserManagerID())

	tk.SeatManagedByID = ptrU64(55)
	tk.UserManagedByID = ptrU64(56)
	assert.Equal(t, uint64(55), tk.SeatManagerID())
	assert.Equal(t, uint64(56), tk.UserManagerID())

	assert.False(t, tk.BelongsToBundle())
	tk.BundleID = ptrStr("bundle-1")
	assert.True(t, tk.BelongsToBundle())
}
