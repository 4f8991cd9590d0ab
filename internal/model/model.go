// Package model defines the core domain types for the participant registry.
package model

import "time"

// Participant is a stored registration record.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ParticipantPatch carries the fields an update should change. Nil fields are
// left untouched.
type ParticipantPatch struct {
	Name  *string
	Email *string
	Phone *string
}

// Empty reports whether the patch changes nothing.
func (p ParticipantPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}

// ParticipantPage is one window of a newest-first listing. Total counts every
// stored participant regardless of the window.
type ParticipantPage struct {
	Items []Participant `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// UpdateResult reports how many records matched and changed.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// CreateParticipantRequest is the payload for registering a participant.
type CreateParticipantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UpdateParticipantRequest is the payload for a partial update. Absent JSON
// keys decode to nil.
type UpdateParticipantRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// CreatedResponse is returned after a successful registration.
type CreatedResponse struct {
	ID string `json:"id"`
}

// UpdatedResponse is returned after a successful update.
type UpdatedResponse struct {
	Modified int64 `json:"modified"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
