package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/participant-registry/internal/model"
)

type participantStore interface {
	Create(ctx context.Context, name, email, phone string) (string, error)
	List(ctx context.Context, page, limit int) ([]model.Participant, int64, error)
	FindByID(ctx context.Context, id string) (*model.Participant, error)
	Update(ctx context.Context, id string, patch model.ParticipantPatch) (model.UpdateResult, error)
	Delete(ctx context.Context, id string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// storeSuite holds behaviour every participant store must share. Embedders
// set newStore so each test starts from an empty store.
type storeSuite struct {
	suite.Suite
	newStore func() participantStore
	store    participantStore
}

func (s *storeSuite) SetupTest() {
	s.store = s.newStore()
}

func strPtr(v string) *string { return &v }

func (s *storeSuite) mustCreate(name, email string) string {
	id, err := s.store.Create(context.Background(), name, email, "0911111111")
	s.Require().NoError(err)
	return id
}

func (s *storeSuite) TestCreateAndFind() {
	ctx := context.Background()
	id := s.mustCreate("A", "a@x.com")

	p, err := s.store.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(id, p.ID)
	s.Equal("A", p.Name)
	s.Equal("a@x.com", p.Email)
	s.Equal("0911111111", p.Phone)
	s.False(p.CreatedAt.IsZero())
	s.True(p.CreatedAt.Equal(p.UpdatedAt))
}

func (s *storeSuite) TestDuplicateEmailRejected() {
	ctx := context.Background()
	s.mustCreate("A", "a@x.com")

	_, err := s.store.Create(ctx, "B", "a@x.com", "0922222222")
	s.ErrorIs(err, ErrDuplicateEmail)

	total, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *storeSuite) TestConcurrentDuplicateCreates() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.store.Create(ctx, fmt.Sprintf("P%d", i), "same@x.com", "0911111111")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrDuplicateEmail):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *storeSuite) TestListNewestFirst() {
	ctx := context.Background()
	a := s.mustCreate("A", "a@x.com")
	b := s.mustCreate("B", "b@x.com")
	c := s.mustCreate("C", "c@x.com")

	items, total, err := s.store.List(ctx, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(items, 3)
	s.Equal([]string{c, b, a}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func (s *storeSuite) TestListTotalIgnoresWindow() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.mustCreate(fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@x.com", i))
	}

	windows := []struct {
		page, limit, want int
	}{
		{1, 2, 2},
		{2, 2, 2},
		{3, 2, 1},
		{4, 2, 0},
		{1, 100, 5},
		{0, 0, 5},
		{-1, -5, 5},
	}
	for _, w := range windows {
		items, total, err := s.store.List(ctx, w.page, w.limit)
		s.Require().NoError(err)
		s.Equal(int64(5), total, "page=%d limit=%d", w.page, w.limit)
		s.Len(items, w.want, "page=%d limit=%d", w.page, w.limit)
	}
}

func (s *storeSuite) TestListWindowAtIntBounds() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.mustCreate(fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@x.com", i))
	}

	windows := []struct {
		page, limit, want int
	}{
		{math.MaxInt, 10, 0},
		{math.MaxInt, 1, 0},
		{math.MaxInt, math.MaxInt, 0},
		{2, math.MaxInt, 0},
		{1, math.MaxInt, 3},
		{math.MinInt, math.MinInt, 3},
	}
	for _, w := range windows {
		items, total, err := s.store.List(ctx, w.page, w.limit)
		s.Require().NoError(err, "page=%d limit=%d", w.page, w.limit)
		s.Equal(int64(3), total, "page=%d limit=%d", w.page, w.limit)
		s.NotNil(items)
		s.Len(items, w.want, "page=%d limit=%d", w.page, w.limit)
	}

	// The store stays writable after the out-of-range reads.
	s.mustCreate("P3", "p3@x.com")
	total, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(4), total)
}

func (s *storeSuite) TestPartialUpdate() {
	ctx := context.Background()
	id := s.mustCreate("A", "a@x.com")
	before, err := s.store.FindByID(ctx, id)
	s.Require().NoError(err)

	res, err := s.store.Update(ctx, id, model.ParticipantPatch{Phone: strPtr("0922222222")})
	s.Require().NoError(err)
	s.Equal(model.UpdateResult{Matched: 1, Modified: 1}, res)

	after, err := s.store.FindByID(ctx, id)
	s.Require().NoError(err)
	s.Equal("0922222222", after.Phone)
	s.Equal(before.Name, after.Name)
	s.Equal(before.Email, after.Email)
	s.Equal(before.ID, after.ID)
	s.True(before.CreatedAt.Equal(after.CreatedAt))
	s.False(after.UpdatedAt.Before(before.UpdatedAt))
}

func (s *storeSuite) TestUpdateEmailConflict() {
	ctx := context.Background()
	s.mustCreate("A", "a@x.com")
	b := s.mustCreate("B", "b@x.com")

	_, err := s.store.Update(ctx, b, model.ParticipantPatch{Email: strPtr("a@x.com")})
	s.ErrorIs(err, ErrDuplicateEmail)

	p, err := s.store.FindByID(ctx, b)
	s.Require().NoError(err)
	s.Equal("b@x.com", p.Email)

	// Keeping one's own email is not a conflict.
	_, err = s.store.Update(ctx, b, model.ParticipantPatch{Email: strPtr("b@x.com")})
	s.NoError(err)

	// A released email can be taken.
	_, err = s.store.Update(ctx, b, model.ParticipantPatch{Email: strPtr("new@x.com")})
	s.Require().NoError(err)
	s.mustCreate("C", "b@x.com")
}

func (s *storeSuite) TestUpdateMissing() {
	res, err := s.store.Update(context.Background(), uuid.NewString(), model.ParticipantPatch{Name: strPtr("X")})
	s.Require().NoError(err)
	s.Equal(int64(0), res.Matched)
}

func (s *storeSuite) TestDeleteTwice() {
	ctx := context.Background()
	id := s.mustCreate("A", "a@x.com")

	n, err := s.store.Delete(ctx, id)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.store.Delete(ctx, id)
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	_, err = s.store.FindByID(ctx, id)
	s.ErrorIs(err, ErrNotFound)

	// The email is free again once its owner is gone.
	s.mustCreate("A2", "a@x.com")
}

func (s *storeSuite) TestInvalidID() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, "not-an-id")
	s.ErrorIs(err, ErrInvalidID)
	_, err = s.store.Update(ctx, "not-an-id", model.ParticipantPatch{Name: strPtr("X")})
	s.ErrorIs(err, ErrInvalidID)
	_, err = s.store.Delete(ctx, "123")
	s.ErrorIs(err, ErrInvalidID)
}
