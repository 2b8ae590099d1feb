package user

import (
	"context"
	"testing"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) SearchUsersByEmail(ctx context.Context, partial string, exclude uuid.UUID, limit int) ([]domain.User, error) {
	args := m.Called(ctx, partial, exclude, limit)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func TestSearch_ShortQueryReturnsEmpty(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	out, err := svc.Search(context.Background(), uuid.New(), " ab ")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	repo.AssertNotCalled(t, "SearchUsersByEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_ExcludesCallerAndStripsNames(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)
	me := uuid.New()
	other := domain.User{ID: uuid.New(), Email: "ann@example.com", Name: "Ann"}

	repo.On("SearchUsersByEmail", mock.Anything, "ann", me, defaultSearchLimit).
		Return([]domain.User{other, {ID: me, Email: "annie@example.com"}}, nil)

	out, err := svc.Search(context.Background(), me, "ANN")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, other.ID, out[0].ID)
	assert.Equal(t, "ann@example.com", out[0].Email)
	assert.Empty(t, out[0].Name)
	repo.AssertExpectations(t)
}

func TestSearch_Unauthenticated(t *testing.T) {
	_, err := New(&mockRepo{}).Search(context.Background(), uuid.Nil, "abc")
	assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
}
