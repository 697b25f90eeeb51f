package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/machine"
	"github.com/agbru/fractalcalc/internal/service"
	"github.com/agbru/fractalcalc/pkg/models"
)

const renderQuery = "fractal=collatz&min=2&max=40&width=20&height=12&chunks=4&frames=3&repeat=true&workers=2"

// mockService is a Service returning a predefined result.
type mockService struct {
	resp     models.RenderResponse
	err      error
	progress *machine.ProgressSubject
	// captured stores the configuration passed to Render for verification.
	captured config.AppConfig
}

func (m *mockService) Render(_ context.Context, cfg config.AppConfig) (models.RenderResponse, error) {
	m.captured = cfg
	return m.resp, m.err
}

func (m *mockService) Fractals() []models.FractalInfo {
	return []models.FractalInfo{{Name: "mock"}}
}

func (m *mockService) Progress() *machine.ProgressSubject { return m.progress }

func (m *mockService) Limits() service.Limits { return service.DefaultLimits() }

// createTestServer initializes a server with a quiet logger and a generous
// rate limit.
func createTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1000})
	t.Cleanup(rl.Stop)
	base := []Option{
		WithLogger(logging.NewLogger(io.Discard, "server")),
		WithRateLimiter(rl),
	}
	return NewServer(fractal.NewFactory(), config.AppConfig{Port: "8080", Workers: 2}, append(base, opts...)...)
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleRender(t *testing.T) {
	t.Parallel()
	s := createTestServer(t)

	w := serve(s, http.MethodGet, "/render?"+renderQuery)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp models.RenderResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Fractal != "collatz" || len(resp.Frames) != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Frames[0].Width != 20 || resp.Frames[0].Height != 12 {
		t.Errorf("frame geometry = %dx%d", resp.Frames[0].Width, resp.Frames[0].Height)
	}
	if resp.Frames[2].Signals == nil {
		t.Error("last frame should carry statistics signals")
	}
}

func TestHandleRender_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		target         string
		opts           []Option
		expectedStatus int
		expectedBody   string
	}{
		{"Unknown parameter", "/render?n=10", nil, http.StatusBadRequest, "Unknown parameter 'n'"},
		{"Unknown fractal", "/render?fractal=nope", nil, http.StatusBadRequest, "Invalid parameters"},
		{"Bad width", "/render?fractal=collatz&width=abc", nil, http.StatusBadRequest, "Invalid parameters"},
		{"Zero chunks", "/render?fractal=collatz&chunks=0", nil, http.StatusBadRequest, "Invalid parameters"},
		{
			"Over the limits", "/render?" + renderQuery,
			[]Option{WithLimits(service.Limits{MaxPixels: 100})},
			http.StatusBadRequest, "render limits",
		},
		{"Method not allowed", "/render?" + renderQuery, nil, http.StatusMethodNotAllowed, "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := createTestServer(t, tt.opts...)
			method := http.MethodGet
			if tt.expectedStatus == http.StatusMethodNotAllowed {
				method = http.MethodPost
			}
			w := serve(s, method, tt.target)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(errResp.Message, tt.expectedBody) {
				t.Errorf("message = %q, want it to contain %q", errResp.Message, tt.expectedBody)
			}
		})
	}
}

func TestHandleRender_ServiceErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"Deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"Canceled", context.Canceled, http.StatusServiceUnavailable},
		{"Config", apperrors.NewConfigError("bad %s", "geometry"), http.StatusBadRequest},
		{"Internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := &mockService{err: tt.err, progress: machine.NewProgressSubject()}
			s := createTestServer(t, WithService(mock))
			w := serve(s, http.MethodGet, "/render?"+renderQuery)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleRender_DefaultsFromServer(t *testing.T) {
	t.Parallel()
	mock := &mockService{progress: machine.NewProgressSubject()}
	s := createTestServer(t, WithService(mock))

	w := serve(s, http.MethodGet, "/render?fractal=collatz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if mock.captured.Workers != 2 {
		t.Errorf("workers = %d, want the server's 2", mock.captured.Workers)
	}
	if mock.captured.Fractal != "collatz" || mock.captured.IterationMax == 0 {
		t.Errorf("preset not applied: %+v", mock.captured)
	}
}

func TestHandleFractals(t *testing.T) {
	t.Parallel()
	s := createTestServer(t)

	w := serve(s, http.MethodGet, "/fractals")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Fractals []models.FractalInfo `json:"fractals"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Fractals) != len(fractal.NewFactory().List()) {
		t.Errorf("got %d fractals", len(body.Fractals))
	}

	if w := serve(s, http.MethodDelete, "/fractals"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	s := createTestServer(t)
	w := serve(s, http.MethodGet, "/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestHandleMetrics(t *testing.T) {
	t.Parallel()
	s := createTestServer(t)
	serve(s, http.MethodGet, "/health")

	w := serve(s, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fractalcalc_requests_total") {
		t.Error("request counter missing from /metrics")
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	s := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options":      "nosniff",
		"X-Frame-Options":             "DENY",
		"Access-Control-Allow-Origin": "*",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}

	if w := serve(s, http.MethodOptions, "/render"); w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
}

func TestSecurityConfig_RestrictedOrigin(t *testing.T) {
	t.Parallel()
	s := createTestServer(t, WithSecurityConfig(SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"https://fractals.example"},
		AllowedMethods: []string{"GET"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 2})
	s := createTestServer(t, WithRateLimiter(rl))
	t.Cleanup(rl.Stop)

	for i := 0; i < 2; i++ {
		if w := serve(s, http.MethodGet, "/health"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w := serve(s, http.MethodGet, "/health")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimiterConfig{})
	rl.Stop()
	rl.Stop()
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"RemoteAddr", "10.0.0.1:1234", nil, "10.0.0.1"},
		{"IPv6 RemoteAddr", "[::1]:1234", nil, "::1"},
		{"Forwarded", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "1.2.3.4"},
		{"Real IP", "10.0.0.1:1234", map[string]string{"X-Real-IP": " 9.9.9.9 "}, "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressStream(t *testing.T) {
	t.Parallel()
	mock := &mockService{progress: machine.NewProgressSubject()}
	s := createTestServer(t, WithService(mock))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/progress", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.CloseNow()

	if mock.progress.ObserverCount() != 1 {
		t.Fatalf("observers = %d, want 1", mock.progress.ObserverCount())
	}
	mock.progress.Notify(2, 0.25)

	var got machine.ProgressUpdate
	if err := wsjson.Read(ctx, c, &got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != (machine.ProgressUpdate{Frame: 2, Value: 0.25}) {
		t.Errorf("update = %+v", got)
	}

	c.Close(websocket.StatusNormalClosure, "")
	deadline := time.Now().Add(2 * time.Second)
	for mock.progress.ObserverCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := mock.progress.ObserverCount(); n != 0 {
		t.Errorf("observer still registered after close: %d", n)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()
	timeouts := Timeouts{RequestTimeout: time.Second, ShutdownTimeout: time.Second}
	s := createTestServer(t,
		WithStdLogger(log.New(io.Discard, "", 0)),
		WithTimeouts(timeouts),
		WithLogger(nil),
		WithService(nil),
	)
	if s.timeouts != timeouts {
		t.Errorf("timeouts = %+v", s.timeouts)
	}
	if _, ok := s.logger.(*logging.StdLoggerAdapter); !ok {
		t.Errorf("logger = %T, want the std adapter", s.logger)
	}
	if s.service == nil {
		t.Error("default service not created")
	}
}
