package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awantoch/flowbridge/api"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/event"
	"github.com/awantoch/flowbridge/nodes"
	"github.com/awantoch/flowbridge/storage"
)

func testService(t *testing.T) *api.Service {
	t.Helper()
	return api.NewService(nil, storage.NewMemoryWorkflowStore(), nodes.NewService(t.TempDir()))
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestHandler_Routes(t *testing.T) {
	h := NewHandler(testService(t), Options{})

	rec := do(h, http.MethodGet, constants.HTTPPathHealth, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, constants.HealthCheckResponse, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/local/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = do(h, http.MethodOptions, "/api/local/workflows", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(h, http.MethodGet, constants.HTTPPathMetrics, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flowbridge_http_requests_total")

	// no bus, no webhook
	rec = do(h, http.MethodPost, constants.HTTPPathTelegramWebhook, `{"update_id":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_TelegramWebhook(t *testing.T) {
	bus := event.NewInProcEventBus()
	defer bus.Close()

	got := make(chan []byte, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Subscribe(ctx, constants.TopicTelegramUpdate, func(ctx context.Context, payload []byte) error {
		got <- payload
		return nil
	}))

	h := NewHandler(testService(t), Options{Bus: bus})
	rec := do(h, http.MethodPost, constants.HTTPPathTelegramWebhook, `{"update_id":9}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case payload := <-got:
		assert.JSONEq(t, `{"update_id":9}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("webhook update was not published")
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, NewHandler(testService(t), Options{})) }()

	resp, err := http.Get("http://" + ln.Addr().String() + constants.HTTPPathHealth)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_InvalidAddress(t *testing.T) {
	err := ListenAndServe(context.Background(), "invalid:address", http.NotFoundHandler())
	assert.Error(t, err)
}
