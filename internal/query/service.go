// Package query は遺伝子-疾患クエリパイプラインのドメインロジックを提供する。
//
// パイプラインは分岐のない直列フロー:
// ユーザー解決 → アソシエーション取得 → 要約（APIキー保持時のみ） → 永続化。
// アソシエーション取得の失敗はリクエスト全体の失敗として呼び出し元へ伝播し、
// 永続化前の失敗では何も書き込まれない。要約の失敗のみ劣化レコードとして吸収される。
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/geneva/internal/metrics"
	"github.com/hitoshi/geneva/internal/model"
	"github.com/hitoshi/geneva/internal/repository"
)

// AssociationFetcher はアソシエーション取得能力のインターフェース。
// テストではネットワークなしの代替実装に差し替える。
type AssociationFetcher interface {
	FetchAssociation(ctx context.Context, geneName, diseaseName string) (*model.Association, error)
}

// Summarizer は要約能力のインターフェース。
// 実装は劣化許容方針に従い、エラーを返さない。
type Summarizer interface {
	Summarize(ctx context.Context, record json.RawMessage, apiKey, additionalContext string) *model.Summary
}

// Service はクエリパイプラインのサービス層。
type Service struct {
	userRepo   repository.UserRepository
	queryRepo  repository.QueryRepository
	fetcher    AssociationFetcher
	summarizer Summarizer
	collector  metrics.MetricsCollector // nil可
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合、メトリクス記録は行わない。
func NewService(
	userRepo repository.UserRepository,
	queryRepo repository.QueryRepository,
	fetcher AssociationFetcher,
	summarizer Summarizer,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		userRepo:   userRepo,
		queryRepo:  queryRepo,
		fetcher:    fetcher,
		summarizer: summarizer,
		collector:  collector,
	}
}

// Run はクエリパイプラインを1回実行し、追記されたクエリ履歴を返す。
// 未登録ユーザーはUSER_NOT_FOUND、アソシエーション取得の失敗は
// LOOKUP_NO_HITS/UPSTREAM_ERRORとして呼び出し元へ返す。
// 成功時は履歴がちょうど1件追記される。リトライは行わない。
func (s *Service) Run(ctx context.Context, username, gene, disease string) (*model.UserQuery, error) {
	user, err := s.userRepo.FindByName(ctx, username)
	if err != nil {
		s.recordFailure("store_error")
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		s.recordFailure("user_not_found")
		return nil, model.NewUserNotFoundError(username)
	}

	start := time.Now()
	assoc, err := s.fetcher.FetchAssociation(ctx, gene, disease)
	if err != nil {
		s.recordFailure(failureReason(err))
		return nil, err
	}
	if s.collector != nil {
		s.collector.RecordLookupLatency(time.Since(start))
	}

	entry := &model.UserQuery{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		Gene:                gene,
		Disease:             disease,
		AssociationResponse: assoc.Raw,
		CreatedAt:           time.Now().UTC(),
	}

	// APIキーを持つユーザーのみ要約を実行する。
	// 要約の失敗は劣化レコードとして吸収され、パイプラインを止めない。
	if user.HasAPIKey() && s.summarizer != nil {
		summary := s.summarizer.Summarize(ctx, assoc.Raw, user.APIKey, "")
		summaryJSON, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("要約のエンコードに失敗しました: %w", err)
		}
		entry.SummaryResponse = summaryJSON
	}

	if err := s.queryRepo.Create(ctx, entry); err != nil {
		s.recordFailure("store_error")
		return nil, fmt.Errorf("クエリ履歴の保存に失敗しました: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordQuerySuccess()
	}
	slog.Info("クエリパイプラインが完了しました",
		slog.String("username", username),
		slog.String("gene", gene),
		slog.String("disease", disease),
		slog.Bool("summarized", entry.SummaryResponse != nil),
	)

	return entry, nil
}

// ListByUsername は指定ユーザーのクエリ履歴を挿入順で返す。
// 未登録ユーザーはUSER_NOT_FOUNDを返す。
func (s *Service) ListByUsername(ctx context.Context, username string) ([]*model.UserQuery, error) {
	user, err := s.userRepo.FindByName(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(username)
	}

	queries, err := s.queryRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("クエリ履歴の取得に失敗しました: %w", err)
	}

	return queries, nil
}

// recordFailure はパイプライン失敗をメトリクスに記録する。
func (s *Service) recordFailure(reason string) {
	if s.collector != nil {
		s.collector.RecordQueryFailure(reason)
	}
}

// failureReason はエラーをメトリクスの失敗理由ラベルに変換する。
func failureReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeLookupNoHits:
			return "lookup_no_hits"
		case model.ErrCodeUpstreamError:
			return "upstream_error"
		}
	}
	return "unknown"
}
