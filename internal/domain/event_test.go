package domain

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	appCtx "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/context"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(now time.Time) EventInput {
	return EventInput{
		Title:     "Pool Party",
		Location:  "Sydney",
		DateTime:  now.Add(24 * time.Hour),
		MaxGuests: 10,
		IsPrivate: true,
	}
}

func TestNewEvent_Validation(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	owner := uuid.New()

	t.Run("valid", func(t *testing.T) {
		e, err := NewEvent(owner, validInput(now), now)
		require.NoError(t, err)
		assert.Equal(t, owner, e.OwnerID)
		assert.False(t, e.IsCanceled)
		assert.True(t, e.IsHost(owner))
	})

	t.Run("date_must_be_future", func(t *testing.T) {
		in := validInput(now)
		in.DateTime = now
		_, err := NewEvent(owner, in, now)
		assert.Equal(t, CodeValidation, CodeOf(err))
	})

	t.Run("negative_max_guests", func(t *testing.T) {
		in := validInput(now)
		in.MaxGuests = -1
		_, err := NewEvent(owner, in, now)
		assert.Contains(t, err.Error(), "max_guests must be >= 0")
	})

	t.Run("missing_title", func(t *testing.T) {
		in := validInput(now)
		in.Title = "   "
		_, err := NewEvent(owner, in, now)
		assert.Equal(t, CodeValidation, CodeOf(err))
	})
}

func TestEvent_ApplyUpdate(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	e, err := NewEvent(uuid.New(), validInput(now), now)
	require.NoError(t, err)

	t.Run("cannot_shrink_below_reserved", func(t *testing.T) {
		max := 3
		err := e.ApplyUpdate(EventPatch{MaxGuests: &max}, 4, now)
		assert.Equal(t, CodeValidation, CodeOf(err))
		assert.Equal(t, 10, e.MaxGuests)
	})

	t.Run("shrink_to_reserved_ok", func(t *testing.T) {
		max := 4
		title := "Renamed"
		require.NoError(t, e.ApplyUpdate(EventPatch{MaxGuests: &max, Title: &title}, 4, now.Add(time.Minute)))
		assert.Equal(t, 4, e.MaxGuests)
		assert.Equal(t, "Renamed", e.Title)
	})

	t.Run("canceled_is_terminal", func(t *testing.T) {
		require.NoError(t, e.Cancel(now))
		title := "again"
		err := e.ApplyUpdate(EventPatch{Title: &title}, 0, now)
		assert.Equal(t, CodeInvalidState, CodeOf(err))
		assert.Contains(t, err.Error(), "cannot modify canceled event")

		err = e.Cancel(now)
		assert.Equal(t, CodeInvalidState, CodeOf(err))
	})
}

func TestEvent_CanView(t *testing.T) {
	host, other := uuid.New(), uuid.New()
	private := &Event{OwnerID: host, IsPrivate: true}
	public := &Event{OwnerID: host}

	assert.True(t, private.CanView(host, false))
	assert.True(t, private.CanView(other, true))
	assert.False(t, private.CanView(other, false))
	assert.True(t, public.CanView(other, false))
}

func TestExtractMentionEmails(t *testing.T) {
	got := ExtractMentionEmails("hi @Bob@Example.com and @amy@x.io, again @bob@example.com. mail me@home")
	assert.Equal(t, []string{"bob@example.com", "amy@x.io"}, got)
	assert.Empty(t, ExtractMentionEmails("no mentions here"))
}

func TestNewOutboxMessage_CarriesRequestID(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	ctx := appCtx.WithRequestID(context.Background(), "req-1")

	msg, err := NewOutboxMessage(ctx, RouteRsvpCreated, RsvpPayload{Status: RsvpYes}, now)
	require.NoError(t, err)
	assert.Equal(t, "req-1", msg.TraceID)
	assert.Equal(t, RouteRsvpCreated, msg.RoutingKey)

	var env Envelope[RsvpPayload]
	require.NoError(t, json.Unmarshal(msg.Body, &env))
	assert.Equal(t, msg.MessageID, env.MessageID)
	assert.Equal(t, Producer, env.Producer)
	assert.Equal(t, RsvpYes, env.Payload.Status)
}
