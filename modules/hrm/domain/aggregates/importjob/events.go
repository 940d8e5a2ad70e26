package importjob

import "github.com/google/uuid"

// CreatedEvent is published on the in-process bus once a job is durably
// created and its worker trigger enqueued.
type CreatedEvent struct {
	JobID    uuid.UUID
	TenantID uuid.UUID
	Total    int
	Valid    int
	Invalid  int
}
