package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/thecoffeedev/password-reset-backend/internal/services"
	"github.com/thecoffeedev/password-reset-backend/internal/token"
)

// ResetHandler handles HTTP requests for the password-reset flow.
type ResetHandler struct {
	service services.ResetServiceProvider
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(service services.ResetServiceProvider) *ResetHandler {
	return &ResetHandler{service: service}
}

// VerifyPayload defines the structure for verification and assignment
// requests. The field names mirror the client contract.
type VerifyPayload struct {
	UserID             string `json:"_id"`
	VerificationString string `json:"verificationString"`
	Password           string `json:"password"`
}

// ForgotPassword issues a reset token and mails the reset link.
func (h *ResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.RequestReset(payload.Email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondMessage(w, http.StatusForbidden, "user is not registered")
			return
		}
		// Mail dispatch and store failures alike stay opaque to the caller.
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to issue reset token")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	respondMessage(w, http.StatusOK, "Password reset link sent to email")
}

// VerifyRandomString checks a presented verification string without
// consuming it.
func (h *ResetHandler) VerifyRandomString(w http.ResponseWriter, r *http.Request) {
	payload, presented, ok := h.decodeVerify(w, r)
	if !ok {
		return
	}

	if err := h.service.VerifyToken(payload.UserID, presented); err != nil {
		h.respondResetError(w, err, payload.UserID)
		return
	}

	respondMessage(w, http.StatusOK, "verification string valid")
}

// AssignPassword finalizes a reset with a new password.
func (h *ResetHandler) AssignPassword(w http.ResponseWriter, r *http.Request) {
	payload, presented, ok := h.decodeVerify(w, r)
	if !ok {
		return
	}

	if err := h.service.AssignPassword(payload.UserID, presented, payload.Password); err != nil {
		h.respondResetError(w, err, payload.UserID)
		return
	}

	respondMessage(w, http.StatusOK, "password changed successfully")
}

// decodeVerify parses the shared request shape and canonicalizes the
// verification string from its wire encoding. On failure it has already
// written the response.
func (h *ResetHandler) decodeVerify(w http.ResponseWriter, r *http.Request) (VerifyPayload, string, bool) {
	var payload VerifyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return payload, "", false
	}

	presented, err := token.DecodeWire(payload.VerificationString)
	if err != nil {
		log.Warn().Err(err).Str("user_id", payload.UserID).Msg("Undecodable verification string")
		h.respondResetError(w, fmt.Errorf("%w: %v", services.ErrMalformedInput, err), payload.UserID)
		return payload, "", false
	}
	return payload, presented, true
}

func (h *ResetHandler) respondResetError(w http.ResponseWriter, err error, userID string) {
	switch {
	case errors.Is(err, services.ErrMalformedInput):
		respondMessage(w, http.StatusBadRequest, "verification string encoding not valid")
	case errors.Is(err, services.ErrUserNotFound):
		respondMessage(w, http.StatusForbidden, "user doesn't exist")
	case errors.Is(err, services.ErrInvalidToken):
		respondMessage(w, http.StatusForbidden, "verification string not valid")
	default:
		log.Error().Err(err).Str("user_id", userID).Msg("Reset operation failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
