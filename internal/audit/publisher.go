package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher hands events to a bounded channel consumed by the Worker. Emit
// never blocks a verification request: when the inbox is full the event is
// dropped, which is acceptable for process-local observability.
type Publisher struct {
	inbox chan<- Event
}

func NewPublisher(inbox chan<- Event) *Publisher {
	return &Publisher{inbox: inbox}
}

func (p *Publisher) Emit(_ context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		// Inbox full; drop rather than stall the request path.
	}
	return nil
}
