package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReady_Succeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := WaitReady(context.Background(), srv.URL)
	assert.NoError(t, err)
}

func TestWaitReady_TimesOutOnCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := WaitReady(ctx, srv.URL)
	assert.Error(t, err)
}

func TestGetJSON_DeduplicatesInFlightRequests(t *testing.T) {
	var hits int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	const callers = 5
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			var out map[string]string
			err := c.GetJSON(context.Background(), "/health", &out)
			assert.NoError(t, err)
			assert.Equal(t, "ok", out["status"])
		}()
	}

	// Let all callers pile onto the in-flight request, then release it.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&hits), "concurrent identical GETs share one request")
}

func TestGetJSON_NewRequestAfterSettle(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	require.NoError(t, c.GetJSON(context.Background(), "/x", nil))
	require.NoError(t, c.GetJSON(context.Background(), "/x", nil))

	assert.EqualValues(t, 2, atomic.LoadInt64(&hits), "dedup entries are dropped once the response settles")
}

func TestGetJSON_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.GetJSON(context.Background(), "/boom", nil)
	assert.Error(t, err)
}
