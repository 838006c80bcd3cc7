package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event records the outcome of one verification attempt. Events are
// process-local observability only; durable audit storage belongs to the
// persistence layer that calls this core.
type Event struct {
	ID        uuid.UUID
	AttemptID uuid.UUID
	Operation string // "registration" or "login"
	Outcome   string
	Reason    string
	Timestamp time.Time
}
