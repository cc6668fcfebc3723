package teamiq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
	// onRefresh mirrors the session controller storing the rotated token.
	onRefresh func(token string)
}

func (r *stubRefresher) Refresh(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	if r.onRefresh != nil {
		r.onRefresh(r.token)
	}
	return r.token, nil
}

func (r *stubRefresher) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeData(w, http.StatusOK, map[string]string{"ping": "pong"})
	}))
	defer srv.Close()

	store := NewMemoryTokenStore()
	client := NewClient(srv.URL, store)

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/api/ping", &out))
	require.Empty(t, gotAuth, "no token, no header")
	require.Equal(t, "pong", out["ping"])

	store.Set("tok1")
	require.NoError(t, client.Get(context.Background(), "/api/ping", &out))
	require.Equal(t, "Bearer tok1", gotAuth)
}

func TestClientRetriesOnceAfterRefresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var retryAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
			return
		}
		retryAuth = r.Header.Get("Authorization")
		writeData(w, http.StatusOK, map[string]string{"result": "later"})
	}))
	defer srv.Close()

	store := NewMemoryTokenStore()
	store.Set("tok1")
	client := NewClient(srv.URL, store)
	refresher := &stubRefresher{token: "tok2", onRefresh: store.Set}
	client.SetRefresher(refresher)

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/api/tasks", &out))
	require.Equal(t, "later", out["result"])
	require.Equal(t, "Bearer tok2", retryAuth, "retry must carry the refreshed token")
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, 1, refresher.callCount())
	require.Equal(t, "tok2", store.Get())
}

func TestClientSingleRetryInvariant(t *testing.T) {
	t.Parallel()

	// The upstream rejects even the refreshed token. Exactly two upstream
	// calls and one refresh may happen.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
	}))
	defer srv.Close()

	store := NewMemoryTokenStore()
	store.Set("tok1")
	client := NewClient(srv.URL, store)
	refresher := &stubRefresher{token: "tok2"}
	client.SetRefresher(refresher)

	var redirects atomic.Int32
	client.OnAuthExpired(func() { redirects.Add(1) })

	err := client.Get(context.Background(), "/api/tasks", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSessionExpired)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	require.Equal(t, int32(2), calls.Load(), "at most one retry")
	require.Equal(t, 1, refresher.callCount(), "at most one refresh")
	require.Empty(t, store.Get())
	require.Equal(t, int32(1), redirects.Load())
}

func TestClientRefreshFailureClearsAndRedirects(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
	}))
	defer srv.Close()

	store := NewMemoryTokenStore()
	store.Set("tok1")
	client := NewClient(srv.URL, store)
	client.SetRefresher(&stubRefresher{err: errors.New("refresh rejected")})

	var redirects atomic.Int32
	client.OnAuthExpired(func() { redirects.Add(1) })

	err := client.Get(context.Background(), "/api/tasks", nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	// The original 401 is what surfaces, not the refresh error.
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "TOKEN_INVALID", apiErr.Code)

	require.Equal(t, int32(1), calls.Load(), "no retry without a refreshed token")
	require.Empty(t, store.Get())
	require.Equal(t, int32(1), redirects.Load())
}

func TestClientConcurrentRefreshSingleFlight(t *testing.T) {
	t.Parallel()

	const waiters = 8

	// The 401 responses are held until every request has arrived, so all
	// waiters hit the refresh path together; the slow refresh then gives
	// stragglers ample time to join the shared flight.
	var arrived sync.WaitGroup
	arrived.Add(waiters)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok2" {
			writeData(w, http.StatusOK, map[string]string{"ok": "yes"})
			return
		}
		arrived.Done()
		<-release
		writeAPIError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired token")
	}))
	defer srv.Close()

	store := NewMemoryTokenStore()
	store.Set("tok1")
	client := NewClient(srv.URL, store)

	var refreshes atomic.Int32
	client.SetRefresher(refresherFunc(func(_ context.Context) (string, error) {
		refreshes.Add(1)
		time.Sleep(100 * time.Millisecond)
		store.Set("tok2")
		return "tok2", nil
	}))

	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/api/tasks", nil)
		}(i)
	}

	arrived.Wait()
	close(release)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "waiter %d", i)
	}
	require.Equal(t, int32(1), refreshes.Load(), "concurrent 401s share one refresh")
}

type refresherFunc func(ctx context.Context) (string, error)

func (f refresherFunc) Refresh(ctx context.Context) (string, error) { return f(ctx) }

func TestClientTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, nil)
	}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, NewMemoryTokenStore())
	err := client.Get(context.Background(), "/api/tasks", nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.NotNil(t, transportErr.Unwrap())

	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr), "connectivity loss is not an API error")
}

func TestClientPassesThroughServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusConflict, "ALREADY_EXISTS", "User already exists")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewMemoryTokenStore())
	client.SetRefresher(&stubRefresher{token: "unused"})

	err := client.Post(context.Background(), "/api/auth/register", map[string]string{}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "ALREADY_EXISTS", apiErr.Code)
	require.Equal(t, "User already exists", apiErr.Message)
	require.NotErrorIs(t, err, ErrSessionExpired)
}

func TestClientNonEnvelopeErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, NewMemoryTokenStore())
	err := client.Get(context.Background(), "/api/tasks", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.Equal(t, "bad gateway", apiErr.Message)
}
