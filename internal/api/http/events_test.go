package httpapi_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quickbar/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextView reads events until one decodes to a view accepted by match.
func nextView[V any](t *testing.T, scanner *bufio.Scanner, match func(V) bool) V {
	t.Helper()
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var v V
		require.NoError(t, json.Unmarshal([]byte(data), &v))
		if match(v) {
			return v
		}
	}
	t.Fatalf("stream ended: %v", scanner.Err())
	var zero V
	return zero
}

func TestCustomerEvents(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/demo/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	view := nextView(t, scanner, func(v service.CustomerView) bool { return v.Screen == service.ScreenMenu })
	assert.Equal(t, "Le Demo", view.VenueName)

	// the stream follows cart changes made by the same device
	var device *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "quickbar_device" {
			device = c
		}
	}
	require.NotNil(t, device)
	w := env.do(t, request{method: http.MethodPut, path: "/demo/cart/burger", body: map[string]any{"quantity": 3}, cookies: []*http.Cookie{device}})
	require.Equal(t, http.StatusOK, w.Code)

	view = nextView(t, scanner, func(v service.CustomerView) bool { return v.ItemCount == 3 })
	assert.Equal(t, 37.5, view.Subtotal)
}

func TestStaffEvents_RequiresAccess(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, request{method: http.MethodGet, path: "/demo/tablette/events"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func openStaffStream(t *testing.T, env *testEnv, srv *httptest.Server) (*bufio.Scanner, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/demo/tablette/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token(t, "super@example.com"))
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return bufio.NewScanner(resp.Body), func() {
		resp.Body.Close()
		cancel()
	}
}

func TestStaffEvents_SurviveIdleSweep(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	scanner, closeStream := openStaffStream(t, env, srv)
	nextView(t, scanner, func(v service.QueueView) bool { return !v.Loading })

	env.handler.Staff.IdleTimeout = -time.Hour
	assert.Equal(t, 0, env.handler.Staff.Sweep())

	placeOrder(t, env)
	view := nextView(t, scanner, func(v service.QueueView) bool { return len(v.Pending) == 1 })
	assert.Equal(t, "burger", view.Pending[0].Items[0].MenuItemID)

	// once the tablet disconnects the queue is idle again
	closeStream()
	require.Eventually(t, func() bool {
		return env.handler.Staff.Sweep() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStaffEvents_EndWhenQueueClosed(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	scanner, closeStream := openStaffStream(t, env, srv)
	defer closeStream()
	nextView(t, scanner, func(v service.QueueView) bool { return !v.Loading })

	require.True(t, env.handler.Staff.Close(demoVenue))
	for scanner.Scan() {
	}
	assert.NoError(t, scanner.Err())
}

func requestEntry(env *testEnv, path string) *logrus.Entry {
	for _, entry := range env.logs.AllEntries() {
		if entry.Message == "request" && entry.Data["path"] == path {
			return entry
		}
	}
	return nil
}

func TestAccessLog(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, request{method: http.MethodGet, path: "/health"})
	entry := requestEntry(env, "/health")
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)

	env.do(t, request{method: http.MethodGet, path: "/nowhere"})
	entry = requestEntry(env, "/nowhere")
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "GET", entry.Data["method"])
}
