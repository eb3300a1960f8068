package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/geneva/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Login はAPIキーの有無で登録とログインを切り替える。
	// 戻り値のboolは新規登録だったかどうかを示す。
	Login(ctx context.Context, username, apiKey string) (*model.User, bool, error)
	// GetInfo はユーザーの公開情報を取得する。
	GetInfo(ctx context.Context, username string) (*model.UserInfo, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// loginRequest はログイン/登録リクエストのボディ。
// api_keyが指定されていれば新規登録、空なら既存ユーザーへのログイン。
type loginRequest struct {
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}

// loginResponse はログイン/登録成功時のデータ部。
type loginResponse struct {
	Username  string `json:"username"`
	HasAPIKey bool   `json:"has_api_key"`
}

// Login はユーザーの登録またはログインを処理する。
// POST /login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	if req.Username == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, missingFieldError("username"))
		return
	}

	user, created, err := h.service.Login(r.Context(), req.Username, req.APIKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := loginResponse{
		Username:  user.Username,
		HasAPIKey: user.HasAPIKey(),
	}
	if created {
		writeSuccessResponse(w, http.StatusCreated, "ユーザーを登録しました。", data)
		return
	}
	writeSuccessResponse(w, http.StatusOK, "ログインしました。", data)
}

// GetInfo はユーザーの公開情報を返す。
// GET /user/:username
func (h *UserHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	info, err := h.service.GetInfo(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccessResponse(w, http.StatusOK, "", info)
}
