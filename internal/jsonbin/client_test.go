package jsonbin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitleague/internal/store"
)

func TestLoadState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bin1/latest", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Master-Key"))
		_, _ = io.WriteString(w, `{"record": {"users": {"Ana": {"name": "Ana"}}, "activities": {"2025-10-04": [{"phone": "Ana", "type": "swim", "metrics": {"m": 1500.0}, "msgId": "2025-10-04#0"}]}}, "metadata": {"id": "bin1"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bin1", "secret", srv.Client())
	st, err := c.LoadState(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Ana", st.Users["Ana"].Name)
	require.Len(t, st.Activities["2025-10-04"], 1)
	rec := st.Activities["2025-10-04"][0]
	assert.Equal(t, "Ana", rec.Participant)
	assert.Equal(t, "2025-10-04#0", rec.RecordID)
	require.NotNil(t, rec.Metrics.M)
	assert.Equal(t, 1500.0, *rec.Metrics.M)
	assert.NotNil(t, st.Leagues, "missing mappings are allocated")
}

func TestLoadState_EmptyRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"record": null}`)
	}))
	defer srv.Close()

	st, err := NewClient(srv.URL, "bin1", "k", srv.Client()).LoadState(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Users)
	assert.NotNil(t, st.Activities)
}

func TestLoadState_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid X-Master-Key"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bin1", "bad", srv.Client()).LoadState(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid X-Master-Key")
}

func TestSaveState(t *testing.T) {
	var received store.State
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/bin1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		resp, _ := json.Marshal(map[string]any{"record": received, "metadata": map[string]any{"parentId": "bin1"}})
		_, _ = w.Write(resp)
	}))
	defer srv.Close()

	st := store.NewState()
	st.EnsureUser("Bia")

	saved, err := NewClient(srv.URL+"/", "bin1", "k", srv.Client()).SaveState(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "Bia", received.Users["Bia"].Name)
	assert.Equal(t, "Bia", saved.Users["Bia"].Name)
}

func TestSaveState_NoEchoFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := store.NewState()
	st.EnsureUser("Caio")
	saved, err := NewClient(srv.URL, "bin1", "k", srv.Client()).SaveState(context.Background(), st)
	require.NoError(t, err)
	assert.Same(t, st, saved)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 2, rl.Requests())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	rl = NewRateLimiter(time.Hour)
	require.NoError(t, rl.Wait(ctx))
	assert.ErrorIs(t, rl.Wait(cancelled), context.Canceled)
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := NewClient("", "", "", nil).LoadState(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
