// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// APIKeyは要約プロバイダ（OpenRouter）呼び出しに使用するユーザー自身の鍵。
// 登録後は更新・削除の経路を持たないイミュータブルなレコード。
type User struct {
	ID        string
	Username  string
	APIKey    string
	CreatedAt time.Time
}

// HasAPIKey は要約に使用できるAPIキーが登録されているかを返す。
// 空キーのユーザーはアソシエーション取得のみでパイプラインが完了する。
func (u *User) HasAPIKey() bool {
	return u.APIKey != ""
}

// UserInfo はユーザーの公開情報を表す。
// APIキーの値そのものは外部に返さず、有無のみ公開する。
type UserInfo struct {
	Username  string    `json:"username"`
	HasAPIKey bool      `json:"has_api_key"`
	CreatedAt time.Time `json:"created_at"`
}
