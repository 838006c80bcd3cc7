package verification

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attest/internal/audit"
	"attest/internal/cnp"
	"attest/internal/document"
	"attest/internal/facematch"
	"attest/internal/liveness"
	"attest/pkg/platform/sentinel"
)

// =============================================================================
// Pipeline Service Test Suite
// =============================================================================

type fakeExtractor struct {
	result *document.Result
	err    error
}

func (f *fakeExtractor) Extract(_ context.Context, _ image.Image) (*document.Result, error) {
	return f.result, f.err
}

type fakeComparer struct {
	result facematch.MatchResult
}

func (f *fakeComparer) Compare(_ context.Context, _, _ image.Image) facematch.MatchResult {
	return f.result
}

type capturingPublisher struct {
	events []audit.Event
}

func (p *capturingPublisher) Emit(_ context.Context, e audit.Event) error {
	p.events = append(p.events, e)
	return nil
}

type ServiceSuite struct {
	suite.Suite
	imageBytes []byte
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupSuite() {
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	s.Require().NoError(err)
	s.imageBytes = buf.Bytes()
}

func (s *ServiceSuite) newService(ex DocumentExtractor, cmp FaceComparer, opts ...Option) *Service {
	svc, err := New(ex, cmp, opts...)
	s.Require().NoError(err)
	return svc
}

func completeResult() *document.Result {
	return &document.Result{
		ID: &cnp.Parsed{Raw: "1800101221232"},
		Fields: []document.ExtractedField{
			{Name: document.FieldIdentityNumber, Cleaned: "1800101221232", Status: document.StatusOK},
			{Name: document.FieldLastName, Cleaned: "POPESCU", Status: document.StatusOK},
			{Name: document.FieldFirstName, Cleaned: "ION", Status: document.StatusOK},
		},
	}
}

func (s *ServiceSuite) TestConstructor() {
	s.Run("nil extractor rejected", func() {
		_, err := New(nil, &fakeComparer{})
		s.Error(err)
	})
	s.Run("nil comparer rejected", func() {
		_, err := New(&fakeExtractor{}, nil)
		s.Error(err)
	})
}

func (s *ServiceSuite) TestVerifyRegistration() {
	s.Run("complete extraction", func() {
		svc := s.newService(&fakeExtractor{result: completeResult()}, &fakeComparer{})

		outcome, err := svc.VerifyRegistration(context.Background(), s.imageBytes)
		s.Require().NoError(err)
		s.NotEqual(uuid.Nil, outcome.AttemptID)
		s.Equal(StageVerdict, outcome.Stage)
		s.False(outcome.Incomplete())
		s.Len(outcome.Result.Fields, 3)
	})

	s.Run("missing required field reported", func() {
		result := &document.Result{Fields: []document.ExtractedField{
			{Name: document.FieldLastName, Cleaned: "POPESCU", Status: document.StatusOK},
		}}
		svc := s.newService(&fakeExtractor{result: result}, &fakeComparer{})

		outcome, err := svc.VerifyRegistration(context.Background(), s.imageBytes)
		s.Require().NoError(err)
		s.True(outcome.Incomplete())
		s.Contains(outcome.MissingFields, document.FieldIdentityNumber)
		s.Contains(outcome.MissingFields, document.FieldFirstName)
	})

	s.Run("unreadable image", func() {
		svc := s.newService(&fakeExtractor{result: completeResult()}, &fakeComparer{})
		_, err := svc.VerifyRegistration(context.Background(), []byte("not an image"))
		s.ErrorIs(err, sentinel.ErrUnreadableImage)
	})

	s.Run("extractor error surfaces", func() {
		svc := s.newService(&fakeExtractor{err: errors.New("detector down")}, &fakeComparer{})
		_, err := svc.VerifyRegistration(context.Background(), s.imageBytes)
		s.Error(err)
	})

	s.Run("custom required fields", func() {
		result := &document.Result{Fields: []document.ExtractedField{
			{Name: document.FieldIdentityNumber, Status: document.StatusOK},
		}}
		svc := s.newService(&fakeExtractor{result: result}, &fakeComparer{},
			WithRequiredFields([]string{document.FieldIdentityNumber}))

		outcome, err := svc.VerifyRegistration(context.Background(), s.imageBytes)
		s.Require().NoError(err)
		s.False(outcome.Incomplete())
	})
}

func (s *ServiceSuite) TestVerifyLogin() {
	s.Run("match verdict passes through", func() {
		distance := 0.42
		match := facematch.MatchResult{
			Outcome:  facematch.OutcomeMatched,
			Reason:   facematch.ReasonDistanceBelowThreshold,
			Distance: &distance,
			Liveness: &liveness.Verdict{Real: true, Confidence: 0.9},
		}
		svc := s.newService(&fakeExtractor{}, &fakeComparer{result: match})

		outcome, err := svc.VerifyLogin(context.Background(), s.imageBytes, s.imageBytes)
		s.Require().NoError(err)
		s.Equal(StageVerdict, outcome.Stage)
		s.Equal(facematch.OutcomeMatched, outcome.Match.Outcome)
		s.Equal(0.42, *outcome.Match.Distance)
	})

	s.Run("unreadable reference image", func() {
		svc := s.newService(&fakeExtractor{}, &fakeComparer{})
		_, err := svc.VerifyLogin(context.Background(), []byte("junk"), s.imageBytes)
		s.ErrorIs(err, sentinel.ErrUnreadableImage)
	})

	s.Run("unreadable live image", func() {
		svc := s.newService(&fakeExtractor{}, &fakeComparer{})
		_, err := svc.VerifyLogin(context.Background(), s.imageBytes, []byte("junk"))
		s.ErrorIs(err, sentinel.ErrUnreadableImage)
	})
}

func (s *ServiceSuite) TestAuditEvents() {
	pub := &capturingPublisher{}
	spoof := facematch.MatchResult{
		Outcome:  facematch.OutcomeNotMatched,
		Reason:   facematch.ReasonSpoofingDetected,
		Liveness: &liveness.Verdict{Real: false, Confidence: 0.8},
	}
	svc := s.newService(&fakeExtractor{result: completeResult()},
		&fakeComparer{result: spoof}, WithAuditPublisher(pub))

	_, err := svc.VerifyRegistration(context.Background(), s.imageBytes)
	s.Require().NoError(err)
	_, err = svc.VerifyLogin(context.Background(), s.imageBytes, s.imageBytes)
	s.Require().NoError(err)

	s.Require().Len(pub.events, 2)
	s.Equal(OpRegistration, pub.events[0].Operation)
	s.Equal("extracted", pub.events[0].Outcome)
	s.Equal(OpLogin, pub.events[1].Operation)
	s.Equal("not_matched", pub.events[1].Outcome)
	s.Equal("spoofing_detected", pub.events[1].Reason)
}
