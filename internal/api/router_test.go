package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thecoffeedev/password-reset-backend/internal/api"
	"github.com/thecoffeedev/password-reset-backend/internal/database"
	"github.com/thecoffeedev/password-reset-backend/internal/mailer"
	"github.com/thecoffeedev/password-reset-backend/internal/services"
	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	urls []string
}

var _ mailer.Mailer = (*fakeMailer)(nil)

func (m *fakeMailer) SendPasswordReset(to, resetURL string) error {
	m.urls = append(m.urls, resetURL)
	return nil
}

// newTestServer wires the real service stack against an in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *fakeMailer) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	mail := &fakeMailer{}
	events := services.NewEventService(db)
	users := services.NewUserService(db, bcrypt.MinCost, events)
	reset := services.NewResetService(db, users, mail, events, "http://localhost:3000/reset-password", bcrypt.MinCost)

	srv := httptest.NewServer(api.NewRouter(users, reset))
	t.Cleanup(srv.Close)
	return srv, mail
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func bodyMessage(t *testing.T, res *http.Response) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body.Message
}

func TestEndToEndResetScenario(t *testing.T) {
	srv, mail := newTestServer(t)

	res := do(t, srv, http.MethodPost, "/register-user", `{"email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "user registered successfully", bodyMessage(t, res))

	res = do(t, srv, http.MethodPost, "/register-user", `{"email":"a@x.com","password":"p1"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, srv, http.MethodPost, "/login", `{"email":"a@x.com","password":"p1"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = do(t, srv, http.MethodPost, "/login", `{"email":"a@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = do(t, srv, http.MethodPost, "/forgot-password", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Password reset link sent to email", bodyMessage(t, res))

	// Pull the user id and wire-encoded token straight from the mailed URL.
	require.Len(t, mail.urls, 1)
	mailed, err := url.Parse(mail.urls[0])
	require.NoError(t, err)
	userID := mailed.Query().Get("id")
	tokenWire := url.QueryEscape(mailed.Query().Get("rps"))
	require.NotEmpty(t, userID)

	verifyBody := fmt.Sprintf(`{"_id":"%s","verificationString":"%s"}`, userID, tokenWire)
	res = do(t, srv, http.MethodPost, "/verify-random-string", verifyBody)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "verification string valid", bodyMessage(t, res))

	// Verification is repeatable; it must not consume the token.
	res = do(t, srv, http.MethodPost, "/verify-random-string", verifyBody)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	assignBody := fmt.Sprintf(`{"_id":"%s","verificationString":"%s","password":"p2"}`, userID, tokenWire)
	res = do(t, srv, http.MethodPut, "/assign-password", assignBody)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "password changed successfully", bodyMessage(t, res))

	res = do(t, srv, http.MethodPost, "/login", `{"email":"a@x.com","password":"p1"}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res = do(t, srv, http.MethodPost, "/login", `{"email":"a@x.com","password":"p2"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// One-time use: replaying the consumed token fails closed.
	res = do(t, srv, http.MethodPut, "/assign-password", assignBody)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "verification string not valid", bodyMessage(t, res))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	srv, mail := newTestServer(t)

	res := do(t, srv, http.MethodPost, "/forgot-password", `{"email":"nobody@x.com"}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "user is not registered", bodyMessage(t, res))
	assert.Empty(t, mail.urls)
}

func TestVerifyUnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)

	res := do(t, srv, http.MethodPost, "/verify-random-string", `{"_id":"missing","verificationString":"tok"}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "user doesn't exist", bodyMessage(t, res))
}
