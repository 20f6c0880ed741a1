package services

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/thecoffeedev/password-reset-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(email, password string, extra map[string]interface{}) (models.User, error)
	Authenticate(email, password string) (models.User, error)
}

// UserService provides business logic for registration and login.
type UserService struct {
	db         *sql.DB
	bcryptCost int
	events     EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, bcryptCost int, events EventServiceProvider) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost, events: events}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	return scanUser(s.db.QueryRow(
		"SELECT id, email, password_hash, reset_token_hash, reset_requested_at, extra_json, created_at FROM users WHERE id = ?", id))
}

// GetUserByEmail retrieves a single user by their email.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	return scanUser(s.db.QueryRow(
		"SELECT id, email, password_hash, reset_token_hash, reset_requested_at, extra_json, created_at FROM users WHERE email = ?", email))
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var requestedAt sql.NullTime
	var extraJSON sql.NullString
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.ResetTokenHash, &requestedAt, &extraJSON, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	if requestedAt.Valid {
		user.ResetRequestedAt = &requestedAt.Time
	}
	if extraJSON.Valid && extraJSON.String != "" {
		if err := json.Unmarshal([]byte(extraJSON.String), &user.Extra); err != nil {
			return models.User{}, fmt.Errorf("corrupt extra fields for user %s: %w", user.ID, err)
		}
	}
	return user, nil
}

// Register creates a new user, hashing their password. Any extra fields from
// the registration payload are persisted verbatim alongside the record. The
// email uniqueness check is a read-then-insert; the UNIQUE constraint on the
// email column backstops the race between concurrent registrations.
func (s *UserService) Register(email, password string, extra map[string]interface{}) (models.User, error) {
	if _, err := s.GetUserByEmail(email); err == nil {
		return models.User{}, ErrUserExists
	} else if err != ErrUserNotFound {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Extra:        extra,
	}

	var extraJSON []byte
	if len(extra) > 0 {
		extraJSON, err = json.Marshal(extra)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to encode extra fields: %w", err)
		}
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, email, password_hash, extra_json) VALUES(?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Email, user.PasswordHash, nullableString(extraJSON)); err != nil {
		return models.User{}, err
	}

	s.events.RecordEvent("user.registered", "info", "new user registered", &user.ID)

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
