package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to a ledger record. Events are
// published after the write that raised them commits.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	TenantID() uuid.UUID
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// BaseDomainEvent carries the envelope every ledger event shares.
// Concrete events embed it and add their payload.
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Aggregate string    `json:"aggregate"`
	SubjectID uuid.UUID `json:"subject_id"`
	Tenant    uuid.UUID `json:"tenant_id"`
	At        time.Time `json:"at"`
}

// NewBaseDomainEvent stamps a new event about the aggregate subjectID
func NewBaseDomainEvent(eventType, aggregate string, subjectID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Aggregate: aggregate,
		SubjectID: subjectID,
		Tenant:    tenantID,
		At:        time.Now().UTC(),
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Tenant }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.SubjectID }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
