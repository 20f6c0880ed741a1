package handlers

import (
	"encoding/json"
	"net/http"
)

// MessageResponse is the body shape shared by every endpoint.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(MessageResponse{Message: message})
}
