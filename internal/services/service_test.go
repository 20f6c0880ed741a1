package services_test

import (
	"database/sql"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thecoffeedev/password-reset-backend/internal/database"
	"github.com/thecoffeedev/password-reset-backend/internal/services"
	"golang.org/x/crypto/bcrypt"
)

const resetURLBase = "http://localhost:3000/reset-password"

// capturingMailer records dispatched reset mail instead of sending it.
type capturingMailer struct {
	to   []string
	urls []string
	err  error
}

func (m *capturingMailer) SendPasswordReset(to, resetURL string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.urls = append(m.urls, resetURL)
	return nil
}

// lastToken extracts the plaintext token from the most recently mailed URL.
func (m *capturingMailer) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.urls, "expected at least one mailed reset URL")
	u, err := url.Parse(m.urls[len(m.urls)-1])
	require.NoError(t, err)
	token := u.Query().Get("rps")
	require.NotEmpty(t, token)
	return token
}

type testEnv struct {
	db     *sql.DB
	mail   *capturingMailer
	events *services.EventService
	users  *services.UserService
	reset  *services.ResetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	// The pool must not open a second connection to an in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	mail := &capturingMailer{}
	events := services.NewEventService(db)
	users := services.NewUserService(db, bcrypt.MinCost, events)
	reset := services.NewResetService(db, users, mail, events, resetURLBase, bcrypt.MinCost)
	return &testEnv{db: db, mail: mail, events: events, users: users, reset: reset}
}

func requireIs(t *testing.T, err, target error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, target), "expected %v, got %v", target, err)
}
