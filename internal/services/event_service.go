package services

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thecoffeedev/password-reset-backend/internal/models"
)

// EventServiceProvider defines the interface for the account audit log.
type EventServiceProvider interface {
	RecordEvent(eventType, level, message string, userID *string)
	RecentEvents(limit int) ([]models.Event, error)
}

// EventService records account activity to the database. Audit writes are
// best-effort; a failed write never fails the request that produced it.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// RecordEvent logs a new event to the database.
func (s *EventService) RecordEvent(eventType, level, message string, userID *string) {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Level:   level,
		Message: message,
		UserID:  userID,
	}

	_, err := s.db.Exec("INSERT INTO events (id, type, level, message, user_id) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.UserID)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record audit event")
	}
}

// RecentEvents retrieves the most recent events from the database.
func (s *EventService) RecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, user_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
