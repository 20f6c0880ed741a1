package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/thecoffeedev/password-reset-backend/internal/services"
)

// AccountHandler handles HTTP requests for registration and login.
type AccountHandler struct {
	service services.UserServiceProvider
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service services.UserServiceProvider) *AccountHandler {
	return &AccountHandler{service: service}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration. The payload must carry email and
// password; any other fields are persisted verbatim with the record.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email, _ := payload["email"].(string)
	password, _ := payload["password"].(string)
	if email == "" || password == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	delete(payload, "email")
	delete(payload, "password")

	if _, err := h.service.Register(email, password, payload); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			respondMessage(w, http.StatusBadRequest, "user already exists, please login")
			return
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to register user")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	respondMessage(w, http.StatusOK, "user registered successfully")
}

// Login handles user authentication.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.service.Authenticate(payload.Email, payload.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			respondMessage(w, http.StatusBadRequest, "user not found")
		case errors.Is(err, services.ErrInvalidCredentials):
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			respondMessage(w, http.StatusUnauthorized, "incorrect password")
		default:
			log.Error().Err(err).Str("email", payload.Email).Msg("Login failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	respondMessage(w, http.StatusOK, "user logged in successfully")
}
