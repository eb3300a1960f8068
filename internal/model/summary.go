// Package model はドメインモデルを定義する。
package model

// Summary は言語モデルによる遺伝子-疾患アソシエーションの要約を表す。
// 3つのキーを必ず含むよう正規化される: 欠けたsummary_textは空文字、
// key_findingsは空配列、confidenceはnull（不明）として補完する。
type Summary struct {
	SummaryText string   `json:"summary_text"`
	KeyFindings []string `json:"key_findings"`
	// Confidence は0.0〜1.0の確信度。モデルが返さなかった場合はnil。
	Confidence *float64 `json:"confidence"`
}

// Normalize は必須キーの欠けを既定値で補完する。
// JSONパース直後に呼び出し、下流が常に3キー揃ったレコードを扱えるようにする。
func (s *Summary) Normalize() {
	if s.KeyFindings == nil {
		s.KeyFindings = []string{}
	}
}

// NewDegradedSummary は要約の失敗を表すSummaryを生成する。
// 要約の失敗はパイプラインを止めない方針のため、エラーは返さず
// summary_textにメッセージを埋め込んだ通常レコードとして返す。
func NewDegradedSummary(message string) *Summary {
	return &Summary{
		SummaryText: message,
		KeyFindings: []string{},
		Confidence:  nil,
	}
}
