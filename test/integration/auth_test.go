//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"teamiq/pkg/teamiq"
)

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestAuthRegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	session, _, registered := registerUser(t, srv, "alice", "engineer")
	require.Equal(t, "alice", registered.Username)
	require.Equal(t, "engineer", registered.Role)
	require.True(t, registered.IsActive)

	// A fresh session signs in with the same credentials.
	login, _ := newSDKSession(t, srv)
	user, err := login.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)

	// Email works as the login identifier too.
	byEmail, _ := newSDKSession(t, srv)
	_, err = byEmail.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, registered.ID, me.ID)
	require.Equal(t, "alice@example.com", me.Email)
}

func TestAuthInvalidCredentials(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	registerUser(t, srv, "alice", "engineer")

	session, _ := newSDKSession(t, srv)
	_, err := session.Login(ctx, "alice", "wrong-password")

	var apiErr *teamiq.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)

	// Unknown accounts answer identically, never leaking which exist.
	_, err = session.Login(ctx, "nobody", "wrong-password")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)

	require.Nil(t, session.CurrentUser())
}

func TestAuthDuplicateRegistration(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	registerUser(t, srv, "alice", "engineer")

	session, _ := newSDKSession(t, srv)
	_, err := session.Register(ctx, teamiq.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: testPassword,
	})

	var apiErr *teamiq.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "ALREADY_EXISTS", apiErr.Code)
}

func TestAuthRefreshRotation(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	session, _, _ := registerUser(t, srv, "alice", "engineer")

	// Capture the first refresh token by logging in directly.
	resp, body := postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginEnv struct {
		Data struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &loginEnv))
	firstRefresh := loginEnv.Data.RefreshToken
	require.NotEmpty(t, firstRefresh)

	// Rotate.
	resp, _ = postJSON(t, srv.URL+"/api/auth/refresh", map[string]string{"refresh_token": firstRefresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Replaying the rotated-out token fails.
	resp, _ = postJSON(t, srv.URL+"/api/auth/refresh", map[string]string{"refresh_token": firstRefresh})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The SDK session refreshes and keeps working end to end.
	token, err := session.Refresh(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	_, err = session.Me(ctx)
	require.NoError(t, err)
}

func TestAuthLogoutRevokesRefreshToken(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	session, _, _ := registerUser(t, srv, "alice", "engineer")

	require.NoError(t, session.Logout(ctx))
	require.Nil(t, session.CurrentUser())

	// The session holds no credentials anymore, so refresh must fail.
	_, err := session.Refresh(ctx)
	require.Error(t, err)
}

func TestAuthPasswordChange(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, client, _ := registerUser(t, srv, "alice", "engineer")

	require.NoError(t, client.Post(ctx, "/api/auth/password-change", map[string]string{
		"current_password": testPassword,
		"new_password":     "an0ther-secret",
	}, nil))

	// Old password is dead, new one works.
	fresh, freshClient := newSDKSession(t, srv)
	_, err := fresh.Login(ctx, "alice", testPassword)
	require.Error(t, err)
	_, err = fresh.Login(ctx, "alice", "an0ther-secret")
	require.NoError(t, err)

	// A wrong current password is rejected; the 401 also rides through the
	// refresh-retry cycle and ends the session.
	err = freshClient.Post(ctx, "/api/auth/password-change", map[string]string{
		"current_password": "not-the-password",
		"new_password":     "yet-an0ther-one",
	}, nil)
	var apiErr *teamiq.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

func TestAuthPasswordResetNeverEnumerates(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "alice", "engineer")

	// Known and unknown addresses answer the same way.
	resp, _ := postJSON(t, srv.URL+"/api/auth/password-reset", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/auth/password-reset", map[string]string{"email": "ghost@example.com"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestAuthRoleGateOnUserList(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, engineerClient, _ := registerUser(t, srv, "eng", "engineer")
	_, managerClient, _ := registerUser(t, srv, "mgr", "manager")

	var users []teamiq.User
	err := engineerClient.Get(ctx, "/api/users", &users)
	var apiErr *teamiq.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.Status)

	require.NoError(t, managerClient.Get(ctx, "/api/users", &users))
	require.Len(t, users, 2)
}
