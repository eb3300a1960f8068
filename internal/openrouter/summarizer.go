// Package openrouter はOpenRouter経由の言語モデルによる
// 遺伝子-疾患アソシエーションの要約を提供する。
//
// 要約は劣化許容（degrade-not-fail）方針を取る: モデル側の障害や
// パース失敗でエラーを返さず、エラーメッセージを埋め込んだ
// 通常のSummaryレコードを返す。要約の失敗がアソシエーション本体の
// 返却を妨げてはならない。
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hitoshi/geneva/internal/model"
)

const (
	// defaultBaseURL はOpenRouterのOpenAI互換APIのベースURL。
	defaultBaseURL = "https://openrouter.ai/api/v1"
	// defaultModel は要約に使用する既定モデル。
	defaultModel = "google/gemini-2.0-flash-001"
	// defaultMaxTokens は応答の最大トークン数。
	defaultMaxTokens = 2000
	// defaultTemperature は低めに設定し決定的な出力を優先する。
	defaultTemperature = 0.1
	// defaultTimeout はチャット補完呼び出しのタイムアウト。
	defaultTimeout = 30 * time.Second
)

// systemPrompt は厳密なJSON出力を要求する固定指示。
// モデルへの指示のため英語のまま保持する。
const systemPrompt = "You are a helpful assistant that summarizes gene-disease associations. " +
	"You must strictly respond in the following JSON format:\n" +
	"{\n" +
	"  \"summary_text\": str,\n" +
	"  \"key_findings\": [str],\n" +
	"  \"confidence\": float (0.0 - 1.0, optional)\n" +
	"}\n" +
	"Do not include any extra text outside this JSON. " +
	"If any field is missing or unknown, use empty string or empty array or null."

// Config はSummarizerの設定を保持する。ゼロ値のフィールドは既定値で補完される。
type Config struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DegradeRecorder は劣化要約の発生を記録するインターフェース。
// メトリクス収集に使用する。
type DegradeRecorder interface {
	RecordSummaryDegraded()
}

// Summarizer はOpenRouterのチャット補完APIで要約を生成する。
// APIキーはユーザーごとに異なるため、呼び出し時に受け取る。
type Summarizer struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	recorder   DegradeRecorder // nil可
}

// NewSummarizer はSummarizerの新しいインスタンスを生成する。
// recorderがnilの場合、劣化要約のメトリクス記録は行わない。
func NewSummarizer(cfg Config, logger *slog.Logger, recorder DegradeRecorder) *Summarizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Summarizer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		recorder:   recorder,
	}
}

// recordDegraded は劣化要約の発生をメトリクスに記録する。
func (s *Summarizer) recordDegraded() {
	if s.recorder != nil {
		s.recorder.RecordSummaryDegraded()
	}
}

// Summarize はアソシエーションレコードを要約する。
// エラーは返さない: 失敗時はエラーメッセージをsummary_textに埋め込んだ
// Summaryを返す（劣化許容）。
func (s *Summarizer) Summarize(ctx context.Context, record json.RawMessage, apiKey, additionalContext string) *model.Summary {
	prompt := s.buildPrompt(record, additionalContext)

	text, err := s.askModel(ctx, apiKey, prompt)
	if err != nil {
		s.logger.Warn("要約の生成に失敗したため劣化レコードを返します",
			slog.String("error", err.Error()),
		)
		s.recordDegraded()
		return model.NewDegradedSummary(fmt.Sprintf("Error: %v", err))
	}

	summary, parsed := parseSummary(text)
	if !parsed {
		s.logger.Warn("要約応答がJSONとしてパースできないためテキストのまま返します")
		s.recordDegraded()
	}
	return summary
}

// buildPrompt は固定指示・遺伝子/疾患名・整形済みレコード・追加コンテキストから
// プロンプトを組み立てる。gene/diseaseキーがレコードにない場合は"Unknown"とする。
func (s *Summarizer) buildPrompt(record json.RawMessage, additionalContext string) string {
	gene, disease := "Unknown", "Unknown"
	var fields map[string]any
	if err := json.Unmarshal(record, &fields); err == nil {
		if v, ok := fields["gene"].(string); ok && v != "" {
			gene = v
		}
		if v, ok := fields["disease"].(string); ok && v != "" {
			disease = v
		}
	}

	serialized := string(record)
	var indented bytes.Buffer
	if err := json.Indent(&indented, record, "", "  "); err == nil {
		serialized = indented.String()
	}

	prompt := fmt.Sprintf("%s\n\nGene: %s\nDisease: %s\nData: %s",
		systemPrompt, gene, disease, serialized)

	if additionalContext != "" {
		prompt += fmt.Sprintf("\n\nContext: %s", additionalContext)
	}

	return prompt
}

// askModel はチャット補完リクエストを1回発行し、応答テキストを返す。
// クライアントはユーザーのAPIキーをBearerトークンとして毎回構築する。
func (s *Summarizer) askModel(ctx context.Context, apiKey, prompt string) (string, error) {
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = s.cfg.BaseURL
	clientCfg.HTTPClient = s.httpClient
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: float32(s.cfg.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseSummary は応答テキストをSummaryに変換する。
// コードフェンスで包まれている場合は先頭行と末尾行を落としてからパースし、
// 欠けた必須キーは既定値で補完する。JSONとしてパースできない場合は
// テキスト全体をsummary_textとして扱い、parsed=falseを返す。
func parseSummary(text string) (summary *model.Summary, parsed bool) {
	body := text
	if strings.HasPrefix(body, "```") {
		lines := strings.Split(body, "\n")
		if len(lines) >= 2 {
			body = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	var s model.Summary
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return model.NewDegradedSummary(body), false
	}

	s.Normalize()
	return &s, true
}
