package rsvp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/context"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *memRepo
	notifier *fakeNotifier
	cache    *fakeCache
	svc      *Service
	host     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMemRepo(),
		notifier: &fakeNotifier{},
		cache:    newFakeCache(),
		host:     uuid.New(),
	}
	f.svc = New(f.repo, f.notifier, WithCache(f.cache, time.Second), WithClock(fixedClock{t: testNow}))
	return f
}

func (f *fixture) event(maxGuests int, private bool) *domain.Event {
	e := &domain.Event{
		ID:        uuid.New(),
		OwnerID:   f.host,
		Title:     "Launch party",
		Location:  "Sydney",
		DateTime:  testNow.Add(48 * time.Hour),
		MaxGuests: maxGuests,
		IsPrivate: private,
	}
	f.repo.addEvent(e)
	return e
}

func (f *fixture) seed(e *domain.Event, status domain.RsvpStatus) *domain.Rsvp {
	r, _ := domain.NewRsvp(e.ID, uuid.New(), f.host, status, testNow)
	f.repo.addRsvp(r)
	return r
}

func requireCode(t *testing.T, err error, code domain.ErrCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, domain.CodeOf(err), err.Error())
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("self rsvp on public event", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(2, false)
		guest := uuid.New()

		r, err := f.svc.Create(ctx, guest, CreateInput{EventID: e.ID, Status: domain.RsvpYes})
		require.NoError(t, err)
		assert.Equal(t, guest, r.InviteeID)
		assert.Equal(t, domain.RsvpYes, r.Status)
		assert.Equal(t, 1, f.repo.outboxLen())
		assert.Zero(t, f.notifier.count("created"), "self rsvp does not notify")
		assert.Equal(t, 1, f.cache.invalidated)
	})

	t.Run("defaults to pending", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(2, false)
		r, err := f.svc.Create(ctx, f.host, CreateInput{EventID: e.ID, InviteeID: uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, domain.RsvpPending, r.Status)
		assert.Equal(t, 1, f.notifier.count("created"))
	})

	t.Run("full event rejects consuming status", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(1, false)
		f.seed(e, domain.RsvpMaybe)

		_, err := f.svc.Create(ctx, uuid.New(), CreateInput{EventID: e.ID, Status: domain.RsvpYes})
		requireCode(t, err, domain.CodeCapacityExceeded)
		assert.Equal(t, 1, f.repo.rsvpCount(e.ID))
		assert.Zero(t, f.repo.outboxLen())
	})

	t.Run("full event still accepts NO", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(1, false)
		f.seed(e, domain.RsvpPending)

		r, err := f.svc.Create(ctx, uuid.New(), CreateInput{EventID: e.ID, Status: domain.RsvpNo})
		require.NoError(t, err)
		assert.Equal(t, domain.RsvpNo, r.Status)
	})

	t.Run("non host cannot invite others", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(5, false)
		_, err := f.svc.Create(ctx, uuid.New(), CreateInput{EventID: e.ID, InviteeID: uuid.New()})
		requireCode(t, err, domain.CodeForbidden)
	})

	t.Run("private event needs invitation", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(5, true)
		_, err := f.svc.Create(ctx, uuid.New(), CreateInput{EventID: e.ID})
		requireCode(t, err, domain.CodeForbidden)
	})

	t.Run("duplicate invitee conflicts", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(5, false)
		guest := uuid.New()
		_, err := f.svc.Create(ctx, guest, CreateInput{EventID: e.ID})
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, guest, CreateInput{EventID: e.ID})
		requireCode(t, err, domain.CodeConflict)
		assert.Equal(t, 1, f.repo.rsvpCount(e.ID))
	})

	t.Run("canceled event", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(5, false)
		e.IsCanceled = true
		_, err := f.svc.Create(ctx, uuid.New(), CreateInput{EventID: e.ID})
		requireCode(t, err, domain.CodeInvalidState)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, uuid.New(), CreateInput{EventID: uuid.New()})
		requireCode(t, err, domain.CodeNotFound)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, uuid.Nil, CreateInput{EventID: uuid.New()})
		requireCode(t, err, domain.CodeUnauthenticated)
	})
}

func TestCreateMultiple(t *testing.T) {
	ctx := context.Background()

	t.Run("skips self duplicates and existing invitees", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, true)
		existing := f.seed(e, domain.RsvpYes)
		a, b := uuid.New(), uuid.New()

		res, err := f.svc.CreateMultiple(ctx, f.host, e.ID, []uuid.UUID{a, f.host, b, a, existing.InviteeID})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
		require.Len(t, res.Rsvps, 2)
		assert.Equal(t, a, res.Rsvps[0].InviteeID)
		assert.Equal(t, b, res.Rsvps[1].InviteeID)
		for _, r := range res.Rsvps {
			assert.Equal(t, domain.RsvpPending, r.Status)
			assert.Equal(t, f.host, r.UserID)
		}
		assert.Equal(t, 3, f.repo.rsvpCount(e.ID))
		assert.Equal(t, 2, f.notifier.count("created"))
	})

	t.Run("only self yields empty result", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, true)
		res, err := f.svc.CreateMultiple(ctx, f.host, e.ID, []uuid.UUID{f.host})
		require.NoError(t, err)
		assert.Zero(t, res.Count)
		assert.Empty(t, res.Rsvps)
		assert.Zero(t, f.notifier.count("created"))
	})

	t.Run("batch is all or nothing", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(3, true)
		f.seed(e, domain.RsvpYes)
		f.seed(e, domain.RsvpNo)

		_, err := f.svc.CreateMultiple(ctx, f.host, e.ID, []uuid.UUID{uuid.New(), uuid.New(), uuid.New()})
		requireCode(t, err, domain.CodeCapacityExceeded)
		ae := err.(*domain.AppError)
		assert.Equal(t, "1", ae.Meta["effective_guests"])
		assert.Equal(t, "3", ae.Meta["requested"])
		assert.Equal(t, 2, f.repo.rsvpCount(e.ID))
		assert.Zero(t, f.repo.outboxLen())
		assert.Zero(t, f.notifier.count("created"))
	})

	t.Run("exactly fills capacity", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(2, true)
		res, err := f.svc.CreateMultiple(ctx, f.host, e.ID, []uuid.UUID{uuid.New(), uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
	})

	t.Run("public event rejects host invite", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, false)
		_, err := f.svc.CreateMultiple(ctx, f.host, e.ID, []uuid.UUID{uuid.New()})
		requireCode(t, err, domain.CodeForbidden)
		assert.Zero(t, f.repo.rsvpCount(e.ID))
	})

	t.Run("non host forbidden", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, true)
		_, err := f.svc.CreateMultiple(ctx, uuid.New(), e.ID, []uuid.UUID{uuid.New()})
		requireCode(t, err, domain.CodeForbidden)
	})

	t.Run("empty list", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, true)
		_, err := f.svc.CreateMultiple(ctx, f.host, e.ID, nil)
		requireCode(t, err, domain.CodeValidation)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("declined cannot rejoin full event", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(1, true)
		f.seed(e, domain.RsvpYes)
		declined := f.seed(e, domain.RsvpNo)

		_, err := f.svc.UpdateStatus(ctx, declined.InviteeID, declined.ID, domain.RsvpYes)
		requireCode(t, err, domain.CodeCapacityExceeded)

		got, _ := f.repo.GetRsvp(ctx, declined.ID)
		assert.Equal(t, domain.RsvpNo, got.Status)
		assert.Zero(t, f.notifier.count("updated"))
	})

	t.Run("yes and maybe move freely at full capacity", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(1, true)
		r := f.seed(e, domain.RsvpYes)

		out, err := f.svc.UpdateStatus(ctx, r.InviteeID, r.ID, domain.RsvpMaybe)
		require.NoError(t, err)
		assert.Equal(t, domain.RsvpMaybe, out.Status)

		out, err = f.svc.UpdateStatus(ctx, r.InviteeID, r.ID, domain.RsvpYes)
		require.NoError(t, err)
		assert.Equal(t, domain.RsvpYes, out.Status)
		assert.Equal(t, 2, f.notifier.count("updated"))
	})

	t.Run("declined rejoins when a spot is free", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(2, true)
		f.seed(e, domain.RsvpYes)
		r := f.seed(e, domain.RsvpNo)

		out, err := f.svc.UpdateStatus(ctx, r.InviteeID, r.ID, domain.RsvpMaybe)
		require.NoError(t, err)
		assert.Equal(t, domain.RsvpMaybe, out.Status)
		n, _ := f.repo.EffectiveGuestCount(ctx, e.ID)
		assert.Equal(t, 2, n)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(1, true)
		r := f.seed(e, domain.RsvpYes)

		out, err := f.svc.UpdateStatus(ctx, r.InviteeID, r.ID, domain.RsvpYes)
		require.NoError(t, err)
		assert.Equal(t, domain.RsvpYes, out.Status)
		assert.Zero(t, f.repo.outboxLen())
		assert.Zero(t, f.notifier.count("updated"))
		assert.Zero(t, f.cache.invalidated)
	})

	t.Run("host may answer for invitee", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(3, true)
		r := f.seed(e, domain.RsvpPending)

		_, err := f.svc.UpdateStatus(ctx, f.host, r.ID, domain.RsvpNo)
		require.NoError(t, err)
		require.Equal(t, 1, f.notifier.count("updated"))
		assert.Equal(t, f.host, f.notifier.calls[0].actorID)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(3, true)
		r := f.seed(e, domain.RsvpPending)
		_, err := f.svc.UpdateStatus(ctx, uuid.New(), r.ID, domain.RsvpYes)
		requireCode(t, err, domain.CodeForbidden)
	})

	t.Run("canceled event is terminal", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(3, true)
		e.IsCanceled = true
		r := f.seed(e, domain.RsvpPending)
		_, err := f.svc.UpdateStatus(ctx, r.InviteeID, r.ID, domain.RsvpYes)
		requireCode(t, err, domain.CodeInvalidState)
		assert.Contains(t, err.Error(), "cannot modify canceled event")
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateStatus(ctx, uuid.New(), uuid.New(), domain.RsvpStatus("SOON"))
		requireCode(t, err, domain.CodeValidation)
	})

	t.Run("unknown rsvp", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateStatus(ctx, uuid.New(), uuid.New(), domain.RsvpYes)
		requireCode(t, err, domain.CodeNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(1, true)
	r := f.seed(e, domain.RsvpYes)

	requireCode(t, f.svc.Delete(ctx, uuid.New(), r.ID), domain.CodeForbidden)

	require.NoError(t, f.svc.Delete(ctx, r.InviteeID, r.ID))
	assert.Zero(t, f.repo.rsvpCount(e.ID))
	assert.Zero(t, f.notifier.count("created")+f.notifier.count("updated"))

	requireCode(t, f.svc.Delete(ctx, r.InviteeID, r.ID), domain.CodeNotFound)

	// the freed spot can be taken again
	_, err := f.svc.CreateMultiple(ctx, f.host, e.ID, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
}

func TestConcurrentAdmissionsNeverExceedCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(5, true)

	declined := make([]*domain.Rsvp, 20)
	for i := range declined {
		declined[i] = f.seed(e, domain.RsvpNo)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for _, r := range declined {
		wg.Add(1)
		go func(r *domain.Rsvp) {
			defer wg.Done()
			_, err := f.svc.UpdateStatus(ctx, r.InviteeID, r.ID, domain.RsvpYes)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domain.IsCode(err, domain.CodeCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(r)
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 15, full)
	n, _ := f.repo.EffectiveGuestCount(ctx, e.ID)
	assert.Equal(t, 5, n)
}

func TestCheckCapacity(t *testing.T) {
	ctx := context.Background()

	t.Run("reports counts and transitions", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(2, true)
		f.seed(e, domain.RsvpYes)
		f.seed(e, domain.RsvpPending)
		mine := f.seed(e, domain.RsvpNo)

		rep, err := f.svc.CheckCapacity(ctx, mine.InviteeID, e.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, rep.EffectiveGuests)
		assert.Equal(t, 2, rep.MaxGuests)
		assert.Equal(t, 0, rep.AvailableSpots)
		assert.False(t, rep.CanAddGuests)
		require.NotNil(t, rep.MyRsvp)
		assert.Empty(t, rep.Transitions)

		_, cached, _ := f.cache.GetCapacity(ctx, e.ID)
		assert.True(t, cached)
	})

	t.Run("served from cache", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, false)
		require.NoError(t, f.cache.SetCapacity(ctx, domain.Capacity{EventID: e.ID, EffectiveGuests: 7, MaxGuests: 8}, 0, time.Second))

		rep, err := f.svc.CheckCapacity(ctx, uuid.New(), e.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 7, rep.EffectiveGuests)
		assert.Equal(t, 10, rep.MaxGuests)
		assert.True(t, rep.CanAddGuests)
		assert.Nil(t, rep.MyRsvp)
	})

	t.Run("canceled event offers nothing", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(5, true)
		mine := f.seed(e, domain.RsvpPending)
		e.IsCanceled = true
		f.repo.addEvent(e)

		rep, err := f.svc.CheckCapacity(ctx, mine.InviteeID, e.ID, 1)
		require.NoError(t, err)
		assert.True(t, rep.IsCanceled)
		assert.False(t, rep.CanAddGuests)
		assert.Equal(t, 4, rep.AvailableSpots)
		require.NotNil(t, rep.MyRsvp)
		assert.Empty(t, rep.Transitions)

		for _, to := range []domain.RsvpStatus{domain.RsvpYes, domain.RsvpMaybe, domain.RsvpNo} {
			_, err := f.svc.UpdateStatus(ctx, mine.InviteeID, mine.ID, to)
			requireCode(t, err, domain.CodeInvalidState)
		}
	})

	t.Run("count taken before a concurrent write is not cached", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(1, false)
		guest := uuid.New()

		racing := &countInterleaver{memRepo: f.repo}
		racing.during = func() {
			_, err := f.svc.Create(ctx, guest, CreateInput{EventID: e.ID, Status: domain.RsvpYes})
			require.NoError(t, err)
		}
		reader := New(racing, f.notifier, WithCache(f.cache, time.Minute), WithClock(fixedClock{t: testNow}))

		rep, err := reader.CheckCapacity(ctx, uuid.New(), e.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, rep.EffectiveGuests, "the racing read itself saw the old count")

		rep, err = f.svc.CheckCapacity(ctx, uuid.New(), e.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, rep.EffectiveGuests)
		assert.False(t, rep.CanAddGuests)
	})

	t.Run("private event hidden from strangers", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, true)
		_, err := f.svc.CheckCapacity(ctx, uuid.New(), e.ID, 1)
		requireCode(t, err, domain.CodeForbidden)
	})

	t.Run("negative additional", func(t *testing.T) {
		f := newFixture(t)
		e := f.event(10, false)
		_, err := f.svc.CheckCapacity(ctx, f.host, e.ID, -1)
		requireCode(t, err, domain.CodeValidation)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CheckCapacity(ctx, f.host, uuid.New(), 1)
		requireCode(t, err, domain.CodeNotFound)
	})
}

func TestListForEvent_RequiresAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(10, true)
	holder := f.seed(e, domain.RsvpYes)
	f.seed(e, domain.RsvpNo)

	items, _, err := f.svc.ListForEvent(ctx, f.host, e.ID, 20, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, _, err = f.svc.ListForEvent(ctx, holder.InviteeID, e.ID, 20, nil)
	require.NoError(t, err)

	_, _, err = f.svc.ListForEvent(ctx, uuid.New(), e.ID, 20, nil)
	requireCode(t, err, domain.CodeForbidden)

	got, err := f.svc.Get(ctx, holder.InviteeID, holder.ID)
	require.NoError(t, err)
	assert.Equal(t, holder.ID, got.ID)

	_, err = f.svc.Get(ctx, uuid.New(), holder.ID)
	requireCode(t, err, domain.CodeForbidden)
}

func TestPostCommitWorkSurvivesClientDisconnect(t *testing.T) {
	f := newFixture(t)
	e := f.event(10, true)

	run := func(t *testing.T, call func(ctx context.Context, svc *Service) error) {
		t.Helper()
		ctx, cancel := context.WithCancel(appCtx.WithRequestID(context.Background(), "req-42"))
		svc := New(cancelOnCommit{memRepo: f.repo, cancel: cancel}, f.notifier,
			WithCache(f.cache, time.Second), WithClock(fixedClock{t: testNow}))
		require.NoError(t, call(ctx, svc))
		require.Error(t, ctx.Err())
	}

	var invited *domain.Rsvp
	run(t, func(ctx context.Context, svc *Service) error {
		res, err := svc.CreateMultiple(ctx, f.host, e.ID, []uuid.UUID{uuid.New(), uuid.New()})
		if err == nil {
			invited = res.Rsvps[0]
		}
		return err
	})
	run(t, func(ctx context.Context, svc *Service) error {
		_, err := svc.Create(ctx, f.host, CreateInput{EventID: e.ID, InviteeID: uuid.New()})
		return err
	})
	run(t, func(ctx context.Context, svc *Service) error {
		_, err := svc.UpdateStatus(ctx, invited.InviteeID, invited.ID, domain.RsvpYes)
		return err
	})

	assert.Equal(t, 3, f.notifier.count("created"))
	assert.Equal(t, 1, f.notifier.count("updated"))
	assert.Equal(t, 3, f.cache.invalidated)
	for _, c := range f.notifier.calls {
		assert.NoError(t, c.ctxErr, c.kind)
		assert.Equal(t, "req-42", c.requestID)
	}
}
