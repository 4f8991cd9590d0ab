package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Shivanand-hulikatti/participant-registry/internal/database"
	"github.com/Shivanand-hulikatti/participant-registry/internal/metrics"
	"github.com/Shivanand-hulikatti/participant-registry/internal/model"
	"github.com/Shivanand-hulikatti/participant-registry/internal/repository"
	"github.com/Shivanand-hulikatti/participant-registry/internal/service/mocks"
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockParticipantStore
	metrics *metrics.Metrics
	service *ParticipantService
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockParticipantStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.service = NewParticipantService(s.store,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithMaxPageSize(50),
	)
}

func ptr(v string) *string { return &v }

func (s *ServiceSuite) assertValidation(err error, field string) {
	s.T().Helper()
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal(field, verr.Field)
}

func (s *ServiceSuite) TestCreateValidation() {
	ctx := context.Background()
	cases := []struct {
		name  string
		req   model.CreateParticipantRequest
		field string
	}{
		{"missing name", model.CreateParticipantRequest{Email: "a@x.com", Phone: "0911111111"}, "name"},
		{"blank name", model.CreateParticipantRequest{Name: "   ", Email: "a@x.com", Phone: "0911111111"}, "name"},
		{"long name", model.CreateParticipantRequest{Name: strings.Repeat("n", 101), Email: "a@x.com", Phone: "0911111111"}, "name"},
		{"missing email", model.CreateParticipantRequest{Name: "A", Phone: "0911111111"}, "email"},
		{"bad email", model.CreateParticipantRequest{Name: "A", Email: "not-an-email", Phone: "0911111111"}, "email"},
		{"missing phone", model.CreateParticipantRequest{Name: "A", Email: "a@x.com"}, "phone"},
		{"phone wrong prefix", model.CreateParticipantRequest{Name: "A", Email: "a@x.com", Phone: "0811111111"}, "phone"},
		{"phone too short", model.CreateParticipantRequest{Name: "A", Email: "a@x.com", Phone: "091111111"}, "phone"},
		{"phone letters", model.CreateParticipantRequest{Name: "A", Email: "a@x.com", Phone: "09111111ab"}, "phone"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			// No store call is expected: the mock fails the test if one happens.
			_, err := s.service.Create(ctx, tc.req)
			s.assertValidation(err, tc.field)
		})
	}
}

func (s *ServiceSuite) TestCreateNormalizesInput() {
	s.store.EXPECT().Create(gomock.Any(), "Alice", "alice@x.com", "0911111111").Return("id-1", nil)

	id, err := s.service.Create(context.Background(), model.CreateParticipantRequest{
		Name: "  Alice ", Email: " Alice@X.com ", Phone: "0911111111 ",
	})
	s.Require().NoError(err)
	s.Equal("id-1", id)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ParticipantsCreated))
}

func (s *ServiceSuite) TestCreateDuplicate() {
	s.store.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", repository.ErrDuplicateEmail)

	_, err := s.service.Create(context.Background(), model.CreateParticipantRequest{Name: "A", Email: "a@x.com", Phone: "0911111111"})
	s.ErrorIs(err, repository.ErrDuplicateEmail)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.EmailConflicts))
	s.Equal(0.0, testutil.ToFloat64(s.metrics.ParticipantsCreated))
}

func (s *ServiceSuite) TestCreateStorageFailure() {
	s.store.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", database.ErrNotInitialized)

	_, err := s.service.Create(context.Background(), model.CreateParticipantRequest{Name: "A", Email: "a@x.com", Phone: "0911111111"})
	s.ErrorIs(err, database.ErrNotInitialized)
	var verr *ValidationError
	s.False(errors.As(err, &verr))
}

func (s *ServiceSuite) TestListDefaultsAndClamp() {
	ctx := context.Background()
	cases := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative", -2, -1, 1, 10},
		{"explicit", 3, 5, 3, 5},
		{"clamped", 1, 500, 1, 50},
		{"huge page", math.MaxInt, math.MaxInt, math.MaxInt, 50},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.store.EXPECT().List(gomock.Any(), tc.wantPage, tc.wantLimit).Return(nil, int64(7), nil)

			page, err := s.service.List(ctx, tc.page, tc.limit)
			s.Require().NoError(err)
			s.Equal(tc.wantPage, page.Page)
			s.Equal(tc.wantLimit, page.Limit)
			s.Equal(int64(7), page.Total)
			s.NotNil(page.Items)
		})
	}
}

func (s *ServiceSuite) TestUpdateBuildsPatchFromSuppliedFields() {
	want := model.ParticipantPatch{Phone: ptr("0922222222")}
	s.store.EXPECT().Update(gomock.Any(), "id-1", want).Return(model.UpdateResult{Matched: 1, Modified: 1}, nil)

	n, err := s.service.Update(context.Background(), "id-1", model.UpdateParticipantRequest{Phone: ptr(" 0922222222")})
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ParticipantsUpdated))
}

func (s *ServiceSuite) TestUpdateValidation() {
	ctx := context.Background()

	_, err := s.service.Update(ctx, "id-1", model.UpdateParticipantRequest{})
	s.ErrorIs(err, ErrEmptyPatch)
	var verr *ValidationError
	s.ErrorAs(err, &verr)

	_, err = s.service.Update(ctx, "id-1", model.UpdateParticipantRequest{Email: ptr("bad")})
	s.assertValidation(err, "email")

	_, err = s.service.Update(ctx, "id-1", model.UpdateParticipantRequest{Name: ptr("")})
	s.assertValidation(err, "name")

	_, err = s.service.Update(ctx, "id-1", model.UpdateParticipantRequest{Name: ptr("ok"), Phone: ptr("123")})
	s.assertValidation(err, "phone")
}

func (s *ServiceSuite) TestUpdateOutcomes() {
	ctx := context.Background()
	req := model.UpdateParticipantRequest{Email: ptr("b@x.com")}

	s.Run("not found", func() {
		s.store.EXPECT().Update(gomock.Any(), "missing", gomock.Any()).Return(model.UpdateResult{}, nil)
		_, err := s.service.Update(ctx, "missing", req)
		s.ErrorIs(err, repository.ErrNotFound)
	})

	s.Run("conflict", func() {
		s.store.EXPECT().Update(gomock.Any(), "id-1", gomock.Any()).Return(model.UpdateResult{}, repository.ErrDuplicateEmail)
		_, err := s.service.Update(ctx, "id-1", req)
		s.ErrorIs(err, repository.ErrDuplicateEmail)
	})

	s.Run("invalid id", func() {
		s.store.EXPECT().Update(gomock.Any(), "zzz", gomock.Any()).Return(model.UpdateResult{}, repository.ErrInvalidID)
		_, err := s.service.Update(ctx, "zzz", req)
		s.ErrorIs(err, repository.ErrInvalidID)
	})
}

func (s *ServiceSuite) TestDeleteOutcomes() {
	ctx := context.Background()

	s.store.EXPECT().Delete(gomock.Any(), "id-1").Return(int64(1), nil)
	s.NoError(s.service.Delete(ctx, "id-1"))

	s.store.EXPECT().Delete(gomock.Any(), "id-1").Return(int64(0), nil)
	s.ErrorIs(s.service.Delete(ctx, "id-1"), repository.ErrNotFound)

	s.store.EXPECT().Delete(gomock.Any(), "id-2").Return(int64(0), database.ErrClosed)
	err := s.service.Delete(ctx, "id-2")
	s.ErrorIs(err, database.ErrConnection)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ParticipantsDeleted))
}

func (s *ServiceSuite) TestSeedDemoIgnoresDuplicate() {
	s.store.EXPECT().Create(gomock.Any(), DemoName, DemoEmail, DemoPhone).Return("", repository.ErrDuplicateEmail)
	s.NoError(s.service.SeedDemo(context.Background()))
}

// TestScenario walks the register, conflict, list, update, delete flow
// against the in-memory store.
func TestScenario(t *testing.T) {
	ctx := context.Background()
	svc := NewParticipantService(repository.NewMemoryRepository())

	id, err := svc.Create(ctx, model.CreateParticipantRequest{Name: "A", Email: "a@x.com", Phone: "0911111111"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = svc.Create(ctx, model.CreateParticipantRequest{Name: "A", Email: "a@x.com", Phone: "0911111111"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	page, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, page.Items, 1)

	n, err := svc.Update(ctx, id, model.UpdateParticipantRequest{Phone: ptr("0922222222")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	page, err = svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "0922222222", page.Items[0].Phone)
	assert.Equal(t, "a@x.com", page.Items[0].Email)

	assert.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), repository.ErrNotFound)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := NewParticipantService(repo)

	require.NoError(t, svc.SeedDemo(ctx))
	require.NoError(t, svc.SeedDemo(ctx))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
