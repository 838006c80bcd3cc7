// Package verification orchestrates document extraction and face comparison
// into the two call shapes the request-handling layer needs: document-only
// extraction at registration, and liveness-gated face comparison at login.
// The service holds no request-spanning state and performs no storage
// lookups; it receives bytes and returns verdicts.
package verification

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attest/internal/audit"
	"attest/internal/document"
	"attest/internal/facematch"
	"attest/internal/imgproc"
	"attest/internal/verification/metrics"
	"attest/pkg/platform/sentinel"
)

// DocumentExtractor is the registration-path dependency.
type DocumentExtractor interface {
	Extract(ctx context.Context, img image.Image) (*document.Result, error)
}

// FaceComparer is the login-path dependency.
type FaceComparer interface {
	Compare(ctx context.Context, reference, live image.Image) facematch.MatchResult
}

// AuditPublisher receives one event per completed attempt.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RegistrationOutcome is the registration verdict. MissingFields lists
// required fields whose regions were never detected or stayed empty; callers
// translate a non-empty list into their extraction-incomplete policy.
type RegistrationOutcome struct {
	AttemptID     uuid.UUID
	Stage         Stage
	Result        *document.Result
	MissingFields []string
}

// Incomplete reports whether required fields are missing.
func (o *RegistrationOutcome) Incomplete() bool {
	return len(o.MissingFields) > 0
}

// LoginOutcome is the comparison verdict for one login attempt.
type LoginOutcome struct {
	AttemptID uuid.UUID
	Stage     Stage
	Match     facematch.MatchResult
}

// Service is the identity verification pipeline.
type Service struct {
	extractor DocumentExtractor
	matcher   FaceComparer
	required  []string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher AuditPublisher
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRequiredFields sets which document fields must extract for a
// registration attempt to be complete.
func WithRequiredFields(fields []string) Option {
	return func(s *Service) { s.required = fields }
}

// New constructs the pipeline service.
func New(extractor DocumentExtractor, matcher FaceComparer, opts ...Option) (*Service, error) {
	if extractor == nil {
		return nil, errors.New("verification: document extractor is required")
	}
	if matcher == nil {
		return nil, errors.New("verification: face comparer is required")
	}
	s := &Service{
		extractor: extractor,
		matcher:   matcher,
		required:  []string{document.FieldIdentityNumber, document.FieldLastName, document.FieldFirstName},
		logger:    slog.Default(),
		tracer:    otel.Tracer("attest/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// VerifyRegistration parses a document photo into structured fields. No
// biometric step runs on this path.
func (s *Service) VerifyRegistration(ctx context.Context, documentImage []byte) (*RegistrationOutcome, error) {
	attempt := newAttempt(OpRegistration)
	ctx, span := s.tracer.Start(ctx, "verification.VerifyRegistration",
		trace.WithAttributes(attribute.String("attempt.id", attempt.ID.String())))
	defer span.End()
	defer s.observe(attempt)

	img, err := imgproc.Decode(documentImage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrUnreadableImage, err)
	}
	attempt.advance(StagePreprocessed)

	result, err := s.extractor.Extract(ctx, img)
	if err != nil {
		s.logger.ErrorContext(ctx, "document extraction failed",
			"attempt_id", attempt.ID, "error", err)
		return nil, err
	}
	attempt.advance(StageFieldExtracted)

	for _, f := range result.Fields {
		s.metrics.IncrementFieldOutcome(f.Name, string(f.Status))
	}

	outcome := &RegistrationOutcome{
		AttemptID:     attempt.ID,
		Result:        result,
		MissingFields: result.Missing(s.required),
	}
	attempt.advance(StageVerdict)
	outcome.Stage = attempt.Stage

	s.audit(ctx, attempt, registrationOutcomeLabel(outcome), registrationReason(outcome))
	s.logger.InfoContext(ctx, "registration attempt complete",
		"attempt_id", attempt.ID,
		"fields", len(result.Fields),
		"missing", outcome.MissingFields,
		"id_valid", result.ID != nil)
	return outcome, nil
}

// VerifyLogin compares a live frame against a stored reference image. The
// caller fetches the reference from its own storage; this pipeline performs
// no lookups.
func (s *Service) VerifyLogin(ctx context.Context, referenceImage, liveImage []byte) (*LoginOutcome, error) {
	attempt := newAttempt(OpLogin)
	ctx, span := s.tracer.Start(ctx, "verification.VerifyLogin",
		trace.WithAttributes(attribute.String("attempt.id", attempt.ID.String())))
	defer span.End()
	defer s.observe(attempt)

	reference, err := imgproc.Decode(referenceImage)
	if err != nil {
		return nil, fmt.Errorf("reference: %w: %v", sentinel.ErrUnreadableImage, err)
	}
	live, err := imgproc.Decode(liveImage)
	if err != nil {
		return nil, fmt.Errorf("live: %w: %v", sentinel.ErrUnreadableImage, err)
	}
	attempt.advance(StagePreprocessed)

	match := s.matcher.Compare(ctx, reference, live)
	attempt.advance(StageFaceEncoded)

	if match.Liveness != nil {
		s.metrics.IncrementLiveness(match.Liveness.Real)
	}
	s.metrics.IncrementMatchOutcome(string(match.Outcome), string(match.Reason))

	attempt.advance(StageVerdict)
	outcome := &LoginOutcome{AttemptID: attempt.ID, Stage: attempt.Stage, Match: match}

	s.audit(ctx, attempt, string(match.Outcome), string(match.Reason))
	s.logger.InfoContext(ctx, "login attempt complete",
		"attempt_id", attempt.ID,
		"outcome", match.Outcome,
		"reason", match.Reason)
	return outcome, nil
}

func (s *Service) observe(attempt *Attempt) {
	s.metrics.ObserveAttemptLatency(attempt.Operation, attempt.elapsed())
}

func (s *Service) audit(ctx context.Context, attempt *Attempt, outcome, reason string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, audit.Event{
		AttemptID: attempt.ID,
		Operation: attempt.Operation,
		Outcome:   outcome,
		Reason:    reason,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}

func registrationOutcomeLabel(o *RegistrationOutcome) string {
	if o.Incomplete() {
		return "incomplete"
	}
	if o.Result.ID == nil {
		return "invalid_id"
	}
	return "extracted"
}

func registrationReason(o *RegistrationOutcome) string {
	if o.Incomplete() {
		return "extraction_incomplete"
	}
	if f, ok := o.Result.Field(document.FieldIdentityNumber); ok && len(f.Errors) > 0 {
		return f.Errors[0]
	}
	return ""
}
