package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/participant-registry/internal/model"
)

// MemoryRepository keeps participants in process memory with the same
// contract as ParticipantRepository. The mutex plays the part of the unique
// index: the email check and the write happen under one lock.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*memoryRecord
	byEmail map[string]string
	seq     int64
	now     func() time.Time
}

type memoryRecord struct {
	p   model.Participant
	seq int64
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*memoryRecord),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// Create stores a participant under a fresh UUID. A taken email yields
// ErrDuplicateEmail.
func (m *MemoryRepository) Create(_ context.Context, name, email, phone string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[email]; taken {
		return "", ErrDuplicateEmail
	}
	now := m.now().UTC()
	m.seq++
	id := uuid.NewString()
	m.byID[id] = &memoryRecord{
		p: model.Participant{
			ID:        id,
			Name:      name,
			Email:     email,
			Phone:     phone,
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: m.seq,
	}
	m.byEmail[email] = id
	return id, nil
}

// List returns one newest-first window of participants and the total count.
func (m *MemoryRepository) List(_ context.Context, page, limit int) ([]model.Participant, int64, error) {
	page, limit = normalizeWindow(page, limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*memoryRecord, 0, len(m.byID))
	for _, rec := range m.byID {
		records = append(records, rec)
	}
	total := int64(len(records))

	items := []model.Participant{}
	off, ok := windowOffset(page, limit)
	if !ok || off >= len(records) {
		return items, total, nil
	}
	slices.SortFunc(records, func(a, b *memoryRecord) int {
		if c := b.p.CreatedAt.Compare(a.p.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	end := len(records)
	if limit < end-off {
		end = off + limit
	}
	for _, rec := range records[off:end] {
		items = append(items, rec.p)
	}
	return items, total, nil
}

// FindByID returns a copy of the participant or ErrNotFound.
func (m *MemoryRepository) FindByID(_ context.Context, id string) (*model.Participant, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[uid]
	if !ok {
		return nil, ErrNotFound
	}
	p := rec.p
	return &p, nil
}

// Update applies the non-nil patch fields. A missing id yields Matched == 0.
func (m *MemoryRepository) Update(_ context.Context, id string, patch model.ParticipantPatch) (model.UpdateResult, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.UpdateResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[uid]
	if !ok {
		return model.UpdateResult{}, nil
	}
	if patch.Email != nil {
		if owner, taken := m.byEmail[*patch.Email]; taken && owner != uid {
			return model.UpdateResult{}, ErrDuplicateEmail
		}
		delete(m.byEmail, rec.p.Email)
		rec.p.Email = *patch.Email
		m.byEmail[rec.p.Email] = uid
	}
	if patch.Name != nil {
		rec.p.Name = *patch.Name
	}
	if patch.Phone != nil {
		rec.p.Phone = *patch.Phone
	}
	rec.p.UpdatedAt = m.now().UTC()
	return model.UpdateResult{Matched: 1, Modified: 1}, nil
}

// Delete removes the participant and reports how many records went.
func (m *MemoryRepository) Delete(_ context.Context, id string) (int64, error) {
	uid, err := parseID(id)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[uid]
	if !ok {
		return 0, nil
	}
	delete(m.byEmail, rec.p.Email)
	delete(m.byID, uid)
	return 1, nil
}

// Count returns the number of stored participants.
func (m *MemoryRepository) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.byID)), nil
}
