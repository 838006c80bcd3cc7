// Package handler is the thin HTTP layer over the verification pipeline. It
// delegates to the service without embedding business logic so transport
// concerns remain isolated.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attest/internal/verification"
	"attest/pkg/platform/sentinel"
)

// Service defines the pipeline operations the handler exposes.
type Service interface {
	VerifyRegistration(ctx context.Context, documentImage []byte) (*verification.RegistrationOutcome, error)
	VerifyLogin(ctx context.Context, referenceImage, liveImage []byte) (*verification.LoginOutcome, error)
}

// Handler handles the verification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/registration", h.handleRegistration)
	r.Post("/verify/login", h.handleLogin)
}

func (h *Handler) handleRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegistrationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.service.VerifyRegistration(ctx, req.documentBytes)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if outcome.Incomplete() {
		// One or more required fields never extracted; the caller decides
		// whether to reattempt capture.
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, newRegistrationResponse(outcome))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.service.VerifyLogin(ctx, req.referenceBytes, req.liveBytes)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(outcome))
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, sentinel.ErrUnreadableImage) {
		writeError(w, http.StatusBadRequest, "unreadable image")
		return
	}
	h.logger.ErrorContext(ctx, "verification failed", "error", err)
	writeError(w, http.StatusInternalServerError, "verification unavailable")
}

func decodeAndValidate(r *http.Request, req interface{ Validate() error }) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return errors.New("invalid request body")
	}
	return req.Validate()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
