package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"observe/internal/observe/core"
	"observe/internal/observe/observability"
	"observe/internal/observe/store/inmemory"
)

type testEnv struct {
	transport *HTTPTransport
	server    *httptest.Server
	store     *inmemory.InMemorySampleStore
	metrics   *observability.PromMetrics
	inflight  *core.InFlight
	ready     *atomic.Bool
}

func newTestEnv(t *testing.T, opts core.SimulatorOptions) *testEnv {
	t.Helper()

	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}
	store := inmemory.NewInMemorySampleStore(nil)
	metrics := observability.NewPromMetrics("test")
	inflight := core.NewInFlight()
	ready := &atomic.Bool{}
	ready.Store(true)

	transport := NewHTTPTransport("127.0.0.1:0", ready.Load)
	require.NoError(t, transport.ServeDemo(core.NewSimulator(opts)))
	require.NoError(t, transport.ServeSamples(core.NewSampleService(store, nil, metrics)))
	transport.Configure(HTTPTransportConfig{
		MaxBodyBytes:   256,
		Logger:         observability.NewDiscardLogger(),
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
		InFlight:       inflight,
	})
	handler, err := transport.Handler()
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &testEnv{transport: transport, server: server, store: store, metrics: metrics, inflight: inflight, ready: ready}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) scrapeMetrics(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func decodeBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHTTP_DemoRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	resp, body := env.do(t, http.MethodGet, "/hello", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hello world", string(body))
	require.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))

	resp, body = env.do(t, http.MethodGet, "/fetch", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "fetched some data", string(body))

	resp, body = env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"ok": true}, decodeBody(t, body))

	resp, body = env.do(t, http.MethodGet, "/error-500", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "Intentional 500"}, decodeBody(t, body))

	resp, body = env.do(t, http.MethodGet, "/bad-request", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "Intentional bad request"}, decodeBody(t, body))

	resp, body = env.do(t, http.MethodGet, "/timeout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"slow": true}, decodeBody(t, body))

	resp, body = env.do(t, http.MethodGet, "/redirect", "")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Empty(t, body)
}

func TestHTTP_TrailingSlashAndMethods(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	resp, body := env.do(t, http.MethodGet, "/hello/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hello world", string(body))

	resp, _ = env.do(t, http.MethodPost, "/sample/create/", `{"name":"s","value":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/hello", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/sample/create", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTP_RaiseErrorIsContained(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	resp, body := env.do(t, http.MethodGet, "/raise-error", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "Internal Server Error"}, decodeBody(t, body))
	require.Contains(t, env.scrapeMetrics(t), `test_http_panics_total{route="/raise-error"} 1`)

	resp, _ = env.do(t, http.MethodGet, "/hello", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTP_RandomErrorRate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{Seed: 42})
	handler, err := env.transport.Handler()
	require.NoError(t, err)

	const calls = 2000
	failures := 0
	for i := 0; i < calls; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/random-error", nil))
		body := decodeBody(t, rec.Body.Bytes())
		switch rec.Code {
		case http.StatusInternalServerError:
			failures++
			require.Equal(t, map[string]any{"error": "Random failure"}, body)
		case http.StatusOK:
			require.Equal(t, map[string]any{"ok": true, "msg": "Success"}, body)
		default:
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
	rate := float64(failures) / calls
	require.InDelta(t, 0.2, rate, 0.04)
}

func TestHTTP_CreateSample(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	resp, body := env.do(t, http.MethodPost, "/sample/create", `{"name":"x","value":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"success": "created sample model with id 1"}, decodeBody(t, body))

	resp, body = env.do(t, http.MethodPost, "/sample/create", `{"name":"x","value":"11"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"success": "created sample model with id 2"}, decodeBody(t, body))

	resp, _ = env.do(t, http.MethodPost, "/sample/create", `{"value":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPost, "/sample/create", `{"name":5,"value":2.9}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx := context.Background()
	expect := []struct {
		name  string
		value int64
	}{{"x-1", 10}, {"x-2", 11}, {"None-3", 1}, {"5-4", 2}}
	for i, want := range expect {
		rec, err := env.store.Get(ctx, int64(i+1))
		require.NoError(t, err)
		require.Equal(t, want.name, rec.Name)
		require.Equal(t, want.value, rec.Value)
	}
	require.Contains(t, env.scrapeMetrics(t), "test_samples_created_total 4")
}

func TestHTTP_CreateSampleRejectsBadInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	cases := []struct {
		body   string
		status int
		errMsg string
	}{
		{`{"name":`, http.StatusBadRequest, "Invalid JSON"},
		{`not json`, http.StatusBadRequest, "Invalid JSON"},
		{`[1,2]`, http.StatusInternalServerError, "Internal Server Error"},
		{`"str"`, http.StatusInternalServerError, "Internal Server Error"},
		{`null`, http.StatusInternalServerError, "Internal Server Error"},
		{`{"NAME":"x","Value":5}`, http.StatusInternalServerError, "Internal Server Error"},
		{`{"name":"x","value":1} {}`, http.StatusBadRequest, "Invalid JSON"},
		{``, http.StatusBadRequest, "Invalid JSON"},
		{`{"name":"x","value":"abc"}`, http.StatusInternalServerError, "Internal Server Error"},
		{`{"name":"x"}`, http.StatusInternalServerError, "Internal Server Error"},
		{`{"name":"` + strings.Repeat("a", 300) + `","value":1}`, http.StatusRequestEntityTooLarge, "request body too large"},
	}
	for _, tc := range cases {
		resp, body := env.do(t, http.MethodPost, "/sample/create", tc.body)
		require.Equal(t, tc.status, resp.StatusCode, tc.body)
		require.Equal(t, map[string]any{"error": tc.errMsg}, decodeBody(t, body), tc.body)
	}

	count, err := env.store.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestHTTP_CreateSampleMatchesKeysExactly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	resp, _ := env.do(t, http.MethodPost, "/sample/create", `{"name":"a","NAME":"b","value":1,"Value":9}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPost, "/sample/create", `{"Name":"b","name":null,"value":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPost, "/sample/create", `{"name":true,"value":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx := context.Background()
	expect := []struct {
		name  string
		value int64
	}{{"a-1", 1}, {"None-2", 2}, {"True-3", 3}}
	for i, want := range expect {
		rec, err := env.store.Get(ctx, int64(i+1))
		require.NoError(t, err)
		require.Equal(t, want.name, rec.Name)
		require.Equal(t, want.value, rec.Value)
	}
}

func TestHTTP_ReadyzFollowsApplication(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	resp, body := env.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"status": "ok"}, decodeBody(t, body))

	env.ready.Store(false)
	resp, body = env.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, map[string]any{"status": "not_ready"}, decodeBody(t, body))
}

func TestHTTP_DrainRejectsNewRequests(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})
	env.inflight.Close()

	resp, body := env.do(t, http.MethodGet, "/hello", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "service unavailable"}, decodeBody(t, body))
}

func TestHTTP_MetricsAndRequestID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, core.SimulatorOptions{})

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	resp, _ = env.do(t, http.MethodGet, "/error-500", "")
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	exposition := env.scrapeMetrics(t)
	require.Contains(t, exposition, `test_http_requests_total{method="GET",route="/health",status="200"} 1`)
	require.Contains(t, exposition, `test_http_requests_total{method="GET",route="/error-500",status="500"} 1`)

	resp, body := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, bytes.Contains(body, []byte(`test_http_requests_total{method="GET",route="/health",status="200"} 1`)))
}

func TestHTTP_HandlerRequiresServices(t *testing.T) {
	t.Parallel()

	transport := NewHTTPTransport("", nil)
	_, err := transport.Handler()
	require.Error(t, err)
	require.Error(t, transport.ServeDemo(nil))
	require.Error(t, transport.ServeSamples(nil))
	require.NoError(t, transport.Shutdown(context.Background()))
}

func TestHTTP_StartAndShutdown(t *testing.T) {
	t.Parallel()

	transport := NewHTTPTransport("127.0.0.1:0", func() bool { return true })
	require.NoError(t, transport.ServeDemo(core.NewSimulator(core.SimulatorOptions{})))
	require.NoError(t, transport.ServeSamples(core.NewSampleService(inmemory.NewInMemorySampleStore(nil), nil, nil)))
	addr, err := transport.Listen()
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- transport.Start() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr.String() + "/hello")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, transport.Shutdown(ctx))
	require.NoError(t, <-errCh)
}
