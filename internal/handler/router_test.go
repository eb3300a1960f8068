package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockPinger はHealthPingerのモック実装。
type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

func newTestRouter(pinger HealthPinger) http.Handler {
	return NewRouter(&RouterDeps{
		CORSAllowedOrigin: "http://localhost:3000",
		Logger:            newTestLogger(),
		Pinger:            pinger,
		UserService:       &mockUserService{},
		QueryService:      &mockQueryService{},
	})
}

// ルートエンドポイントが稼働確認メッセージを返すことを検証
func TestRouter_Root(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "GenEvA is running!") {
		t.Errorf("body = %q, want 稼働確認メッセージを含む", w.Body.String())
	}
}

// DB疎通が取れる場合のヘルスチェックを検証
func TestRouter_Health_Healthy(t *testing.T) {
	router := newTestRouter(&mockPinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("body = %q, want healthy", w.Body.String())
	}
}

// DB疎通が取れない場合のヘルスチェックを検証
func TestRouter_Health_Unhealthy(t *testing.T) {
	router := newTestRouter(&mockPinger{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
	if !strings.Contains(w.Body.String(), "unhealthy") {
		t.Errorf("body = %q, want unhealthy", w.Body.String())
	}
}

// CORSヘッダーが全ルートに適用されることを検証
func TestRouter_CORSHeaders(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want http://localhost:3000", got)
	}
}

// MetricsHandler指定時に/metricsがマウントされることを検証
func TestRouter_MetricsEndpoint(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})

	router := NewRouter(&RouterDeps{
		Logger:         newTestLogger(),
		MetricsHandler: metricsHandler,
		UserService:    &mockUserService{},
		QueryService:   &mockQueryService{},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "# metrics") {
		t.Errorf("body = %q, want メトリクス出力", w.Body.String())
	}
}

// 未定義のルートは404を返すことを検証
func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}
