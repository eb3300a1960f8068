// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, lookup, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound  = "USER_NOT_FOUND"
	ErrCodeUsernameTaken = "USERNAME_TAKEN"
	ErrCodeLookupNoHits  = "LOOKUP_NO_HITS"
	ErrCodeUpstreamError = "UPSTREAM_ERROR"
)

// NewUserNotFoundError は未登録ユーザーエラーを生成する。
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("ユーザーが見つかりません: %s", username),
		Category: "auth",
		Action:   "api_keyを指定してユーザー登録を行ってください。",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
// 2回目以降の登録は拒否し、最初に登録されたAPIキーを保持する。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("ユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定するか、api_keyなしでログインしてください。",
	}
}

// NewLookupNoHitsError は名前解決で検索ヒットが0件だったエラーを生成する。
// kindには "gene" または "disease" を指定する。
func NewLookupNoHitsError(kind, name string) *APIError {
	return &APIError{
		Code:     ErrCodeLookupNoHits,
		Message:  fmt.Sprintf("%sが見つかりません: %s", kindLabel(kind), name),
		Category: "lookup",
		Action:   "名前の綴りを確認してください。正式なシンボル名・疾患名を推奨します。",
	}
}

// NewUpstreamError は外部サービスの接続失敗・エラーステータスを表すエラーを生成する。
func NewUpstreamError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamError,
		Message:  fmt.Sprintf("外部サービスの呼び出しに失敗しました: %s", reason),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

func kindLabel(kind string) string {
	switch kind {
	case "gene":
		return "遺伝子"
	case "disease":
		return "疾患"
	default:
		return kind
	}
}
