package services

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thecoffeedev/password-reset-backend/internal/mailer"
	"github.com/thecoffeedev/password-reset-backend/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// ResetServiceProvider defines the interface for the password-reset flow.
type ResetServiceProvider interface {
	RequestReset(email string) error
	VerifyToken(userID, presented string) error
	AssignPassword(userID, presented, newPassword string) error
}

// ResetService drives the reset-token state machine. A user record is either
// idle (empty reset_token_hash) or has exactly one pending token; issuing
// overwrites the pending token and finalizing clears it, so the latest issued
// token is the only one that can ever finalize.
type ResetService struct {
	db         *sql.DB
	users      *UserService
	mail       mailer.Mailer
	events     EventServiceProvider
	urlBase    string
	bcryptCost int
}

// NewResetService creates a new ResetService.
func NewResetService(db *sql.DB, users *UserService, mail mailer.Mailer, events EventServiceProvider, urlBase string, bcryptCost int) *ResetService {
	return &ResetService{db: db, users: users, mail: mail, events: events, urlBase: urlBase, bcryptCost: bcryptCost}
}

// RequestReset issues a fresh reset token for the user registered under the
// given email and mails them a link carrying the plaintext token. Only the
// bcrypt hash of the token is stored. The hash is persisted before the mail
// is dispatched, so a dispatch failure leaves a usable pending token and the
// user can simply re-request.
func (s *ResetService) RequestReset(email string) error {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return err
	}

	plaintext, err := token.New()
	if err != nil {
		return err
	}
	tokenHash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash verification string: %w", err)
	}

	// Latest token wins: any previously pending token is invalidated here.
	_, err = s.db.Exec("UPDATE users SET reset_token_hash = ?, reset_requested_at = ? WHERE id = ?",
		string(tokenHash), time.Now().UTC(), user.ID)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s?id=%s&rps=%s", s.urlBase, user.ID, url.QueryEscape(plaintext))
	if err := s.mail.SendPasswordReset(user.Email, resetURL); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Reset mail dispatch failed, token remains pending")
		return fmt.Errorf("%w: %v", ErrMailDispatch, err)
	}

	s.events.RecordEvent("reset.requested", "info", "password reset link sent", &user.ID)
	return nil
}

// VerifyToken reports whether the presented token matches the pending reset
// token for the given user. It never mutates state, so a client may check a
// token any number of times before committing to the password change.
func (s *ResetService) VerifyToken(userID, presented string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	// The empty sentinel is not a valid bcrypt hash, so a consumed or
	// never-issued token can never compare equal.
	if bcrypt.CompareHashAndPassword([]byte(user.ResetTokenHash), []byte(presented)) != nil {
		return ErrInvalidToken
	}
	return nil
}

// AssignPassword finalizes a reset: it re-validates the presented token
// against the stored hash, then commits the new password hash and clears the
// pending token in a single update so the token cannot be replayed. The
// comparison is done here even if the caller already verified, since no
// session ties a verify call to the finalize that follows it.
func (s *ResetService) AssignPassword(userID, presented, newPassword string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.ResetTokenHash), []byte(presented)) != nil {
		return ErrInvalidToken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	// One statement: the password update and the token invalidation land
	// together or not at all.
	res, err := s.db.Exec(
		"UPDATE users SET password_hash = ?, reset_token_hash = '', reset_requested_at = NULL WHERE id = ? AND reset_token_hash = ?",
		string(passwordHash), user.ID, user.ResetTokenHash)
	if err != nil {
		return err
	}
	// A concurrent re-request can swap the pending token between our read
	// and this write; failing closed is the right outcome.
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrInvalidToken
	}

	s.events.RecordEvent("reset.completed", "info", "password changed via reset token", &user.ID)
	return nil
}
