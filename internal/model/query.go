// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// Association はOpen Targets APIから取得した遺伝子-疾患アソシエーションを表す。
// 構造的に利用するフィールドのみをパースし、レスポンス全体（data.disease）は
// Rawに元のまま保持する。永続化と要約プロンプトにはRawを使用する。
type Association struct {
	DiseaseID     string
	DiseaseName   string
	EvidenceCount int
	Raw           json.RawMessage
}

// UserQuery はユーザーが実行したクエリの履歴レコードを表す。
// パイプライン実行1回につき1件作成され、以後変更・削除されない。
type UserQuery struct {
	ID      string
	UserID  string
	Gene    string
	Disease string
	// AssociationResponse はアソシエーションレスポンス全体のJSON。
	AssociationResponse json.RawMessage
	// SummaryResponse は要約結果のJSON。要約を実行しなかった場合はnil。
	SummaryResponse json.RawMessage
	CreatedAt       time.Time
}
