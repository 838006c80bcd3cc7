package verification

import (
	"time"

	"github.com/google/uuid"
)

// Stage tracks where a single attempt is in its lifecycle. Each call is one
// complete, independent attempt; nothing carries over between calls.
type Stage string

const (
	StageCaptured       Stage = "captured"
	StagePreprocessed   Stage = "preprocessed"
	StageFieldExtracted Stage = "field_extracted"
	StageFaceEncoded    Stage = "face_encoded"
	StageVerdict        Stage = "verdict"
)

// Operation names for the two call shapes.
const (
	OpRegistration = "registration"
	OpLogin        = "login"
)

// Attempt is the per-request state machine. It exists for observability: the
// stage reached is attached to logs, traces and outcomes so a failed attempt
// can be located without replaying it.
type Attempt struct {
	ID        uuid.UUID
	Operation string
	Stage     Stage
	StartedAt time.Time
}

func newAttempt(operation string) *Attempt {
	return &Attempt{
		ID:        uuid.New(),
		Operation: operation,
		Stage:     StageCaptured,
		StartedAt: time.Now(),
	}
}

func (a *Attempt) advance(stage Stage) {
	a.Stage = stage
}

func (a *Attempt) elapsed() time.Duration {
	return time.Since(a.StartedAt)
}
