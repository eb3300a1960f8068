package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/geneva/internal/model"
)

// --- モック定義 ---

// mockQueryService はQueryServiceInterfaceのモック実装。
type mockQueryService struct {
	runFn  func(ctx context.Context, username, gene, disease string) (*model.UserQuery, error)
	listFn func(ctx context.Context, username string) ([]*model.UserQuery, error)
}

func (m *mockQueryService) Run(ctx context.Context, username, gene, disease string) (*model.UserQuery, error) {
	if m.runFn != nil {
		return m.runFn(ctx, username, gene, disease)
	}
	return &model.UserQuery{Gene: gene, Disease: disease}, nil
}

func (m *mockQueryService) ListByUsername(ctx context.Context, username string) ([]*model.UserQuery, error) {
	if m.listFn != nil {
		return m.listFn(ctx, username)
	}
	return nil, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- POST /query テスト ---

func TestQueryHandler_RunQuery_Success(t *testing.T) {
	svc := &mockQueryService{
		runFn: func(ctx context.Context, username, gene, disease string) (*model.UserQuery, error) {
			if username != "alice" || gene != "BRCA1" || disease != "cancer" {
				t.Errorf("run(%q, %q, %q), want (alice, BRCA1, cancer)", username, gene, disease)
			}
			return &model.UserQuery{
				ID:                  "q-1",
				Gene:                gene,
				Disease:             disease,
				AssociationResponse: json.RawMessage(`{"id":"EFO_0000311"}`),
				SummaryResponse:     json.RawMessage(`{"summary_text":"T"}`),
				CreatedAt:           time.Now().UTC(),
			}, nil
		},
	}

	h := NewQueryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"username":"alice","gene":"BRCA1","disease":"cancer"}`))
	w := httptest.NewRecorder()

	h.RunQuery(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	envelope := decodeEnvelope(t, w)
	if envelope["status"] != "success" {
		t.Errorf("status = %v, want success", envelope["status"])
	}
	data := envelope["data"].(map[string]any)
	if data["gene"] != "BRCA1" || data["disease"] != "cancer" {
		t.Errorf("data = %v/%v, want BRCA1/cancer", data["gene"], data["disease"])
	}
	assoc := data["association_response"].(map[string]any)
	if assoc["id"] != "EFO_0000311" {
		t.Errorf("association_response.id = %v, want EFO_0000311", assoc["id"])
	}
	summary := data["summary_response"].(map[string]any)
	if summary["summary_text"] != "T" {
		t.Errorf("summary_response.summary_text = %v, want T", summary["summary_text"])
	}
}

func TestQueryHandler_RunQuery_WithoutSummary_ReturnsNull(t *testing.T) {
	svc := &mockQueryService{
		runFn: func(ctx context.Context, username, gene, disease string) (*model.UserQuery, error) {
			return &model.UserQuery{
				ID:                  "q-1",
				Gene:                gene,
				Disease:             disease,
				AssociationResponse: json.RawMessage(`{}`),
			}, nil
		},
	}

	h := NewQueryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"username":"bob","gene":"BRCA1","disease":"cancer"}`))
	w := httptest.NewRecorder()

	h.RunQuery(w, req)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]any)
	if data["summary_response"] != nil {
		t.Errorf("summary_response = %v, want null", data["summary_response"])
	}
}

func TestQueryHandler_RunQuery_LookupNoHits_ReturnsNotFound(t *testing.T) {
	svc := &mockQueryService{
		runFn: func(ctx context.Context, username, gene, disease string) (*model.UserQuery, error) {
			return nil, model.NewLookupNoHitsError("gene", gene)
		},
	}

	h := NewQueryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"username":"alice","gene":"NOTAGENE","disease":"cancer"}`))
	w := httptest.NewRecorder()

	h.RunQuery(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}

	envelope := decodeEnvelope(t, w)
	if envelope["code"] != model.ErrCodeLookupNoHits {
		t.Errorf("code = %v, want %v", envelope["code"], model.ErrCodeLookupNoHits)
	}
	if envelope["category"] != "lookup" {
		t.Errorf("category = %v, want lookup", envelope["category"])
	}
}

func TestQueryHandler_RunQuery_UpstreamError_ReturnsBadGateway(t *testing.T) {
	svc := &mockQueryService{
		runFn: func(ctx context.Context, username, gene, disease string) (*model.UserQuery, error) {
			return nil, model.NewUpstreamError("connection refused")
		},
	}

	h := NewQueryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"username":"alice","gene":"BRCA1","disease":"cancer"}`))
	w := httptest.NewRecorder()

	h.RunQuery(w, req)

	if w.Result().StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadGateway)
	}
}

func TestQueryHandler_RunQuery_MissingFields_ReturnsBadRequest(t *testing.T) {
	h := NewQueryHandler(&mockQueryService{})

	bodies := map[string]string{
		"username欠如": `{"gene":"BRCA1","disease":"cancer"}`,
		"gene欠如":     `{"username":"alice","disease":"cancer"}`,
		"disease欠如":  `{"username":"alice","gene":"BRCA1"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
			w := httptest.NewRecorder()

			h.RunQuery(w, req)

			if w.Result().StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
			}
		})
	}
}

// --- GET /queries/:username テスト ---

func TestQueryHandler_ListQueries_ReturnsEntries(t *testing.T) {
	svc := &mockQueryService{
		listFn: func(ctx context.Context, username string) ([]*model.UserQuery, error) {
			return []*model.UserQuery{
				{ID: "q-1", Gene: "BRCA1", Disease: "cancer", AssociationResponse: json.RawMessage(`{}`)},
				{ID: "q-2", Gene: "TP53", Disease: "glioma", AssociationResponse: json.RawMessage(`{}`)},
			}, nil
		},
	}

	router := NewRouter(&RouterDeps{
		Logger:       newTestLogger(),
		UserService:  &mockUserService{},
		QueryService: svc,
	})

	req := httptest.NewRequest(http.MethodGet, "/queries/alice", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	envelope := decodeEnvelope(t, w)
	entries := envelope["data"].([]any)
	if len(entries) != 2 {
		t.Fatalf("履歴件数 = %d, want 2", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["gene"] != "BRCA1" {
		t.Errorf("entries[0].gene = %v, want BRCA1（挿入順で返るべき）", first["gene"])
	}
}

func TestQueryHandler_ListQueries_Empty_ReturnsEmptyArray(t *testing.T) {
	router := NewRouter(&RouterDeps{
		Logger:       newTestLogger(),
		UserService:  &mockUserService{},
		QueryService: &mockQueryService{},
	})

	req := httptest.NewRequest(http.MethodGet, "/queries/alice", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	envelope := decodeEnvelope(t, w)
	entries, ok := envelope["data"].([]any)
	if !ok {
		t.Fatalf("data = %v, want 配列（履歴0件でも空配列を返すべき）", envelope["data"])
	}
	if len(entries) != 0 {
		t.Errorf("履歴件数 = %d, want 0", len(entries))
	}
}

func TestQueryHandler_ListQueries_UnknownUser_ReturnsNotFound(t *testing.T) {
	svc := &mockQueryService{
		listFn: func(ctx context.Context, username string) ([]*model.UserQuery, error) {
			return nil, model.NewUserNotFoundError(username)
		},
	}

	router := NewRouter(&RouterDeps{
		Logger:       newTestLogger(),
		UserService:  &mockUserService{},
		QueryService: svc,
	})

	req := httptest.NewRequest(http.MethodGet, "/queries/ghost", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}
