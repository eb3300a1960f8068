package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/geneva/internal/model"
)

// QueryServiceInterface はクエリハンドラーが必要とするサービスインターフェース。
type QueryServiceInterface interface {
	// Run はクエリパイプラインを1回実行し、追記されたクエリ履歴を返す。
	Run(ctx context.Context, username, gene, disease string) (*model.UserQuery, error)
	// ListByUsername は指定ユーザーのクエリ履歴を挿入順で返す。
	ListByUsername(ctx context.Context, username string) ([]*model.UserQuery, error)
}

// QueryHandler は遺伝子-疾患クエリのHTTPハンドラー。
type QueryHandler struct {
	service QueryServiceInterface
}

// NewQueryHandler はQueryHandlerを生成する。
func NewQueryHandler(service QueryServiceInterface) *QueryHandler {
	return &QueryHandler{
		service: service,
	}
}

// queryRequest はクエリ実行リクエストのボディ。
type queryRequest struct {
	Username string `json:"username"`
	Gene     string `json:"gene"`
	Disease  string `json:"disease"`
}

// queryEntryResponse はクエリ履歴1件のAPIレスポンス。
// summary_responseは要約が実行されなかった場合nullになる。
type queryEntryResponse struct {
	ID                  string          `json:"id"`
	Gene                string          `json:"gene"`
	Disease             string          `json:"disease"`
	AssociationResponse json.RawMessage `json:"association_response"`
	SummaryResponse     json.RawMessage `json:"summary_response"`
	CreatedAt           time.Time       `json:"created_at"`
}

// RunQuery はクエリパイプラインの実行を処理する。
// POST /query
func (h *QueryHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	switch {
	case req.Username == "":
		writeAPIErrorResponse(w, http.StatusBadRequest, missingFieldError("username"))
		return
	case req.Gene == "":
		writeAPIErrorResponse(w, http.StatusBadRequest, missingFieldError("gene"))
		return
	case req.Disease == "":
		writeAPIErrorResponse(w, http.StatusBadRequest, missingFieldError("disease"))
		return
	}

	entry, err := h.service.Run(r.Context(), req.Username, req.Gene, req.Disease)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessResponse(w, http.StatusOK, "クエリが完了しました。", toQueryEntryResponse(entry))
}

// ListQueries は指定ユーザーのクエリ履歴を返す。
// GET /queries/:username
func (h *QueryHandler) ListQueries(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	queries, err := h.service.ListByUsername(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 履歴0件でも空配列を返す
	entries := make([]queryEntryResponse, 0, len(queries))
	for _, q := range queries {
		entries = append(entries, toQueryEntryResponse(q))
	}

	writeSuccessResponse(w, http.StatusOK, "", entries)
}

// toQueryEntryResponse はmodel.UserQueryからAPIレスポンスに変換する。
func toQueryEntryResponse(q *model.UserQuery) queryEntryResponse {
	return queryEntryResponse{
		ID:                  q.ID,
		Gene:                q.Gene,
		Disease:             q.Disease,
		AssociationResponse: q.AssociationResponse,
		SummaryResponse:     q.SummaryResponse,
		CreatedAt:           q.CreatedAt,
	}
}
