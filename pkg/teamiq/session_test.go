package teamiq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testUser = User{
	ID:       "user-1",
	Email:    "alice@example.com",
	Username: "alice",
	FullName: "Alice Doe",
	Role:     "engineer",
	IsActive: true,
}

func pairResponse(access string, refresh string) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
		"expires_in":    900,
		"user":          testUser,
	}
}

func newTestSession(t *testing.T, handler http.Handler) (*Session, *MemoryTokenStore, *atomic.Int32) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewMemoryTokenStore()
	client := NewClient(srv.URL, store)
	session := NewSession(client, store)

	var redirects atomic.Int32
	session.OnAuthExpired(func() { redirects.Add(1) })
	return session, store, &redirects
}

func TestSessionHappyLogin(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "p@ss1234" {
			writeAPIError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
			return
		}
		writeData(w, http.StatusOK, pairResponse("tok1", "rt1"))
	})

	session, store, _ := newTestSession(t, mux)

	user, err := session.Login(context.Background(), "alice", "p@ss1234")
	require.NoError(t, err)
	require.Equal(t, "tok1", store.Get())
	require.Equal(t, "engineer", user.Role)
	require.Equal(t, "alice", session.CurrentUser().Username)
}

func TestSessionLoginFailureLeavesStateAlone(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	})

	session, store, redirects := newTestSession(t, mux)

	_, err := session.Login(context.Background(), "alice", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)

	require.Empty(t, store.Get())
	require.Nil(t, session.CurrentUser())
	require.Equal(t, int32(0), redirects.Load(),
		"a rejected login is not a session expiry")
}

func TestSessionLogoutClearsUnconditionally(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, pairResponse("tok1", "rt1"))
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
	})

	session, store, redirects := newTestSession(t, mux)

	_, err := session.Login(context.Background(), "alice", "p@ss1234")
	require.NoError(t, err)
	require.Equal(t, "tok1", store.Get())

	err = session.Logout(context.Background())
	require.Error(t, err, "the server failure is still reported")
	require.Empty(t, store.Get(), "local state clears even when the server call fails")
	require.Nil(t, session.CurrentUser())
	require.Equal(t, int32(1), redirects.Load())
}

func TestSessionExpiredTokenRetrySuccess(t *testing.T) {
	t.Parallel()

	var taskCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, pairResponse("tok1", "rt1"))
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "rt1" {
			writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
			return
		}
		writeData(w, http.StatusOK, pairResponse("tok2", "rt2"))
	})
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		taskCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok2" {
			writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
			return
		}
		writeData(w, http.StatusOK, []map[string]string{{"title": "ship it"}})
	})

	session, store, redirects := newTestSession(t, mux)

	_, err := session.Login(context.Background(), "alice", "p@ss1234")
	require.NoError(t, err)

	var tasks []map[string]string
	require.NoError(t, session.client.Get(context.Background(), "/api/tasks", &tasks))
	require.Len(t, tasks, 1)
	require.Equal(t, "ship it", tasks[0]["title"])

	require.Equal(t, int32(2), taskCalls.Load())
	require.Equal(t, "tok2", store.Get())
	require.Equal(t, int32(0), redirects.Load())
}

func TestSessionRefreshFailureCascade(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, pairResponse("tok1", "rt1"))
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
	})
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
	})

	session, store, redirects := newTestSession(t, mux)

	_, err := session.Login(context.Background(), "alice", "p@ss1234")
	require.NoError(t, err)
	require.NotNil(t, session.CurrentUser())

	err = session.client.Get(context.Background(), "/api/tasks", nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	require.Empty(t, store.Get())
	require.Nil(t, session.CurrentUser())
	require.Equal(t, int32(1), redirects.Load(), "redirect fires exactly once")
}

func TestSessionRefreshRotatesTokens(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, pairResponse("tok1", "rt1"))
	})
	var presented string
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		presented = body["refresh_token"]
		writeData(w, http.StatusOK, pairResponse("tok2", "rt2"))
	})

	session, store, _ := newTestSession(t, mux)

	_, err := session.Login(context.Background(), "alice", "p@ss1234")
	require.NoError(t, err)

	token, err := session.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok2", token)
	require.Equal(t, "rt1", presented)
	require.Equal(t, "tok2", store.Get())
}

func TestSessionRefreshWithoutTokenFails(t *testing.T) {
	t.Parallel()

	session, store, _ := newTestSession(t, http.NewServeMux())
	store.Set("tok1") // a bare access token with no refresh credential

	_, err := session.Refresh(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Empty(t, store.Get())
}

func TestSessionInitFastPathAndReconcile(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		fresh := testUser
		fresh.FullName = "Alice Q. Doe" // the authoritative profile differs
		writeData(w, http.StatusOK, fresh)
	})

	session, store, _ := newTestSession(t, mux)
	store.Set(signTestToken(t, jwt.MapClaims{
		"sub":      testUser.ID,
		"email":    testUser.Email,
		"username": testUser.Username,
		"role":     testUser.Role,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	}))

	require.NoError(t, session.Init(context.Background()))

	user := session.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, "Alice Q. Doe", user.FullName, "profile fetch reconciles claims")
	require.Equal(t, "engineer", user.Role)
}

func TestSessionInitExpiredTokenSignsOut(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("an expired token must not reach the network")
	})

	session, store, _ := newTestSession(t, mux)
	store.Set(signTestToken(t, jwt.MapClaims{
		"sub": testUser.ID,
		"exp": time.Now().Add(-time.Hour).Unix(),
	}))

	require.NoError(t, session.Init(context.Background()))
	require.Nil(t, session.CurrentUser())
	require.Empty(t, store.Get())
}

func TestSessionInitBrokenProfileClearsSession(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
	})

	session, store, _ := newTestSession(t, mux)
	store.Set(signTestToken(t, jwt.MapClaims{
		"sub": testUser.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}))

	require.Error(t, session.Init(context.Background()))
	require.Nil(t, session.CurrentUser())
	require.Empty(t, store.Get())
}

func TestSessionInitDropsStaleProfile(t *testing.T) {
	t.Parallel()

	// A logout lands while the profile fetch is in flight; the late profile
	// must not repopulate the identity.
	var session *Session
	fetching := make(chan struct{})
	loggedOut := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]bool{"logged_out": true})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		close(fetching)
		<-loggedOut
		writeData(w, http.StatusOK, testUser)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := NewMemoryTokenStore()
	client := NewClient(srv.URL, store)
	session = NewSession(client, store)
	store.Set(signTestToken(t, jwt.MapClaims{
		"sub": testUser.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}))

	done := make(chan error, 1)
	go func() { done <- session.Init(context.Background()) }()

	<-fetching
	require.NoError(t, session.Logout(context.Background()))
	close(loggedOut)

	require.NoError(t, <-done)
	require.Nil(t, session.CurrentUser(), "stale profile must not win over the logout")
	require.Empty(t, store.Get())
}
