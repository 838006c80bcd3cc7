package handler

import (
	"attest/internal/verification"
)

// FieldResponse mirrors one extracted field.
type FieldResponse struct {
	Name       string   `json:"name"`
	RawText    string   `json:"raw_text,omitempty"`
	Cleaned    string   `json:"cleaned,omitempty"`
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// RegistrationResponse is the body for a completed registration attempt.
type RegistrationResponse struct {
	AttemptID     string          `json:"attempt_id"`
	Fields        []FieldResponse `json:"fields"`
	IdentityValid bool            `json:"identity_number_valid"`
	MissingFields []string        `json:"missing_fields,omitempty"`
}

func newRegistrationResponse(o *verification.RegistrationOutcome) RegistrationResponse {
	resp := RegistrationResponse{
		AttemptID:     o.AttemptID.String(),
		IdentityValid: o.Result.ID != nil,
		MissingFields: o.MissingFields,
		Fields:        make([]FieldResponse, 0, len(o.Result.Fields)),
	}
	for _, f := range o.Result.Fields {
		resp.Fields = append(resp.Fields, FieldResponse{
			Name:       f.Name,
			RawText:    f.RawText,
			Cleaned:    f.Cleaned,
			Status:     string(f.Status),
			Confidence: f.Confidence,
			Errors:     f.Errors,
		})
	}
	return resp
}

// LoginResponse is the body for a completed login comparison.
type LoginResponse struct {
	AttemptID          string   `json:"attempt_id"`
	Outcome            string   `json:"outcome"`
	Reason             string   `json:"reason,omitempty"`
	Distance           *float64 `json:"distance,omitempty"`
	LivenessConfidence *float64 `json:"liveness_confidence,omitempty"`
}

func newLoginResponse(o *verification.LoginOutcome) LoginResponse {
	resp := LoginResponse{
		AttemptID: o.AttemptID.String(),
		Outcome:   string(o.Match.Outcome),
		Reason:    string(o.Match.Reason),
		Distance:  o.Match.Distance,
	}
	if o.Match.Liveness != nil {
		c := o.Match.Liveness.Confidence
		resp.LivenessConfidence = &c
	}
	return resp
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
