package rsvp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/context"
	"github.com/google/uuid"
)

// memRepo models the postgres store: txMu stands in for the event row lock
// and a failed transaction restores the previous rows.
type memRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	events map[uuid.UUID]*domain.Event
	rsvps  map[uuid.UUID]*domain.Rsvp
	outbox []domain.OutboxMessage
}

func newMemRepo() *memRepo {
	return &memRepo{
		events: map[uuid.UUID]*domain.Event{},
		rsvps:  map[uuid.UUID]*domain.Rsvp{},
	}
}

func (m *memRepo) addEvent(e *domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

func (m *memRepo) addRsvp(r *domain.Rsvp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rsvps[r.ID] = r
}

func (m *memRepo) rsvpCount(eventID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rsvps {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func (m *memRepo) outboxLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outbox)
}

func (m *memRepo) WithTx(ctx context.Context, fn func(tx TxRepo) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	saved := make(map[uuid.UUID]domain.Rsvp, len(m.rsvps))
	for id, r := range m.rsvps {
		saved[id] = *r
	}
	savedOutbox := len(m.outbox)
	m.mu.Unlock()

	if err := fn(&memTx{m: m}); err != nil {
		m.mu.Lock()
		m.rsvps = make(map[uuid.UUID]*domain.Rsvp, len(saved))
		for id, r := range saved {
			cp := r
			m.rsvps[id] = &cp
		}
		m.outbox = m.outbox[:savedOutbox]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memRepo) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) GetRsvp(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsvps[id]
	if !ok {
		return nil, domain.ErrNotFound("rsvp not found")
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) FindRsvp(ctx context.Context, eventID, inviteeID uuid.UUID) (*domain.Rsvp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rsvps {
		if r.EventID == eventID && r.InviteeID == inviteeID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound("rsvp not found")
}

func (m *memRepo) EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(eventID), nil
}

func (m *memRepo) countLocked(eventID uuid.UUID) int {
	n := 0
	for _, r := range m.rsvps {
		if r.EventID == eventID && r.Status.ConsumesCapacity() {
			n++
		}
	}
	return n
}

func (m *memRepo) list(match func(*domain.Rsvp) bool, limit int) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Rsvp
	for _, r := range m.rsvps {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		last := out[limit-1]
		return out[:limit], &domain.KeysetCursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return out, nil, nil
}

func (m *memRepo) ListRsvpsByInvitee(ctx context.Context, inviteeID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	return m.list(func(r *domain.Rsvp) bool { return r.InviteeID == inviteeID }, limit)
}

func (m *memRepo) ListRsvpsByEvent(ctx context.Context, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	return m.list(func(r *domain.Rsvp) bool { return r.EventID == eventID }, limit)
}

// cancelOnCommit cancels the caller's context once the transaction returns.
type cancelOnCommit struct {
	*memRepo
	cancel context.CancelFunc
}

func (c cancelOnCommit) WithTx(ctx context.Context, fn func(tx TxRepo) error) error {
	err := c.memRepo.WithTx(ctx, fn)
	c.cancel()
	return err
}

type memTx struct{ m *memRepo }

func (t *memTx) LockEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return t.m.GetEvent(ctx, eventID)
}

func (t *memTx) EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	return t.m.EffectiveGuestCount(ctx, eventID)
}

func (t *memTx) GetRsvp(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error) {
	return t.m.GetRsvp(ctx, id)
}

func (t *memTx) GetRsvpForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error) {
	return t.m.GetRsvp(ctx, id)
}

func (t *memTx) ExistingInvitees(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := map[uuid.UUID]struct{}{}
	for _, r := range t.m.rsvps {
		if _, ok := want[r.InviteeID]; ok && r.EventID == eventID {
			out[r.InviteeID] = struct{}{}
		}
	}
	return out, nil
}

func (t *memTx) InsertRsvp(ctx context.Context, r *domain.Rsvp) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for _, existing := range t.m.rsvps {
		if existing.EventID == r.EventID && existing.InviteeID == r.InviteeID {
			return domain.ErrConflict("rsvp already exists for this invitee")
		}
	}
	cp := *r
	t.m.rsvps[r.ID] = &cp
	return nil
}

func (t *memTx) UpdateRsvpStatus(ctx context.Context, id uuid.UUID, status domain.RsvpStatus, now time.Time) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	r, ok := t.m.rsvps[id]
	if !ok {
		return domain.ErrNotFound("rsvp not found")
	}
	r.Status = status
	r.UpdatedAt = now
	return nil
}

func (t *memTx) DeleteRsvp(ctx context.Context, id uuid.UUID) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.rsvps[id]; !ok {
		return domain.ErrNotFound("rsvp not found")
	}
	delete(t.m.rsvps, id)
	return nil
}

func (t *memTx) InsertOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.m.outbox = append(t.m.outbox, msg)
	return nil
}

type notifyCall struct {
	kind      string
	rsvpID    uuid.UUID
	actorID   uuid.UUID
	ctxErr    error
	requestID string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) RsvpCreated(ctx context.Context, ev *domain.Event, r *domain.Rsvp) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{kind: "created", rsvpID: r.ID, ctxErr: ctx.Err(), requestID: appCtx.GetRequestID(ctx)})
}

func (f *fakeNotifier) RsvpStatusChanged(ctx context.Context, ev *domain.Event, r *domain.Rsvp, actorID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{kind: "updated", rsvpID: r.ID, actorID: actorID, ctxErr: ctx.Err(), requestID: appCtx.GetRequestID(ctx)})
}

func (f *fakeNotifier) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

type cachedSnapshot struct {
	c   domain.Capacity
	gen int64
}

// fakeCache mirrors the redis generation check.
type fakeCache struct {
	mu          sync.Mutex
	snaps       map[uuid.UUID]cachedSnapshot
	gens        map[uuid.UUID]int64
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{snaps: map[uuid.UUID]cachedSnapshot{}, gens: map[uuid.UUID]int64{}}
}

func (c *fakeCache) GetCapacity(ctx context.Context, eventID uuid.UUID) (domain.Capacity, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snaps[eventID]
	if !ok || s.gen != c.gens[eventID] {
		return domain.Capacity{}, false, nil
	}
	return s.c, true, nil
}

func (c *fakeCache) CapacityGeneration(ctx context.Context, eventID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[eventID], nil
}

func (c *fakeCache) SetCapacity(ctx context.Context, s domain.Capacity, gen int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[s.EventID] = cachedSnapshot{c: s, gen: gen}
	return nil
}

func (c *fakeCache) InvalidateCapacity(ctx context.Context, eventID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[eventID]++
	delete(c.snaps, eventID)
	c.invalidated++
	return nil
}

// countInterleaver runs during once, right after the first read-path count,
// to model a write landing between the count and the cache fill.
type countInterleaver struct {
	*memRepo
	once   sync.Once
	during func()
}

func (r *countInterleaver) EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	n, err := r.memRepo.EffectiveGuestCount(ctx, eventID)
	r.once.Do(r.during)
	return n, err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
