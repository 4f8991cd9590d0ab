// Package service implements validation and outcome translation between the
// HTTP handlers and the repository layer.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ParticipantStore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/participant-registry/internal/metrics"
	"github.com/Shivanand-hulikatti/participant-registry/internal/model"
	"github.com/Shivanand-hulikatti/participant-registry/internal/repository"
)

// DefaultMaxPageSize caps the limit a caller may request.
const DefaultMaxPageSize = 100

// Demo participant written by SeedDemo.
const (
	DemoName  = "Demo Participant"
	DemoEmail = "demo@example.com"
	DemoPhone = "0912345678"
)

// ErrEmptyPatch is returned when an update names no fields. It is a
// *ValidationError.
var ErrEmptyPatch = &ValidationError{Message: "no fields to update"}

// ParticipantStore is the persistence contract the service needs.
type ParticipantStore interface {
	Create(ctx context.Context, name, email, phone string) (string, error)
	List(ctx context.Context, page, limit int) ([]model.Participant, int64, error)
	FindByID(ctx context.Context, id string) (*model.Participant, error)
	Update(ctx context.Context, id string, patch model.ParticipantPatch) (model.UpdateResult, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// ParticipantService orchestrates participant operations.
type ParticipantService struct {
	store       ParticipantStore
	maxPageSize int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a ParticipantService.
type Option func(s *ParticipantService)

// WithMaxPageSize caps the limit List accepts. Non-positive values are ignored.
func WithMaxPageSize(n int) Option {
	return func(s *ParticipantService) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ParticipantService) {
		s.logger = logger
	}
}

// WithMetrics records create, update, delete and conflict counts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ParticipantService) {
		s.metrics = m
	}
}

// NewParticipantService constructs a ParticipantService with its dependencies.
func NewParticipantService(store ParticipantStore, opts ...Option) *ParticipantService {
	s := &ParticipantService{
		store:       store,
		maxPageSize: DefaultMaxPageSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request and registers a new participant.
// A taken email yields repository.ErrDuplicateEmail.
func (s *ParticipantService) Create(ctx context.Context, req model.CreateParticipantRequest) (string, error) {
	name := normalizeName(req.Name)
	email := normalizeEmail(req.Email)
	phone := normalizePhone(req.Phone)

	if err := validateName(name); err != nil {
		return "", err
	}
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePhone(phone); err != nil {
		return "", err
	}

	id, err := s.store.Create(ctx, name, email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.IncrementConflicts()
			return "", err
		}
		return "", fmt.Errorf("create participant: %w", err)
	}
	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "participant created", "participant_id", id)
	return id, nil
}

// List returns one newest-first page. Non-positive page or limit fall back to
// the defaults and limit is capped at the configured maximum. A page past the
// end, however large, yields no items and the full total.
func (s *ParticipantService) List(ctx context.Context, page, limit int) (*model.ParticipantPage, error) {
	if page < 1 {
		page = repository.DefaultPage
	}
	if limit < 1 {
		limit = repository.DefaultLimit
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	items, total, err := s.store.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if items == nil {
		items = []model.Participant{}
	}
	return &model.ParticipantPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get returns a single participant by id.
func (s *ParticipantService) Get(ctx context.Context, id string) (*model.Participant, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, err
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// Update applies the supplied fields only and returns how many records were
// modified. Zero matches yield repository.ErrNotFound.
func (s *ParticipantService) Update(ctx context.Context, id string, req model.UpdateParticipantRequest) (int64, error) {
	var patch model.ParticipantPatch
	if req.Name != nil {
		name := normalizeName(*req.Name)
		if err := validateName(name); err != nil {
			return 0, err
		}
		patch.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if err := validateEmail(email); err != nil {
			return 0, err
		}
		patch.Email = &email
	}
	if req.Phone != nil {
		phone := normalizePhone(*req.Phone)
		if err := validatePhone(phone); err != nil {
			return 0, err
		}
		patch.Phone = &phone
	}
	if patch.Empty() {
		return 0, ErrEmptyPatch
	}

	res, err := s.store.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			s.metrics.IncrementConflicts()
			return 0, err
		case errors.Is(err, repository.ErrInvalidID):
			return 0, err
		}
		return 0, fmt.Errorf("update participant: %w", err)
	}
	if res.Matched == 0 {
		return 0, repository.ErrNotFound
	}
	s.metrics.IncrementUpdated()
	return res.Modified, nil
}

// Delete removes a participant for good. A missing id yields
// repository.ErrNotFound.
func (s *ParticipantService) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return err
		}
		return fmt.Errorf("delete participant: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	s.metrics.IncrementDeleted()
	s.logger.InfoContext(ctx, "participant deleted", "participant_id", id)
	return nil
}

// SeedDemo registers the demo participant unless its email is already taken.
func (s *ParticipantService) SeedDemo(ctx context.Context) error {
	_, err := s.Create(ctx, model.CreateParticipantRequest{Name: DemoName, Email: DemoEmail, Phone: DemoPhone})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		s.logger.DebugContext(ctx, "demo participant already present")
		return nil
	}
	return err
}
