package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/geneva/internal/metrics"
	"github.com/hitoshi/geneva/internal/middleware"
)

// HealthPinger はヘルスチェックで使用するDB疎通確認のインターフェース。
type HealthPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector // nil可

	// 運用エンドポイント
	Pinger         HealthPinger // nil可
	MetricsHandler http.Handler // nil可

	// サービス
	UserService  UserServiceInterface
	QueryService QueryServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → RecoveryMiddleware → LoggingMiddleware
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())

	var onStatus middleware.StatusRecorderFunc
	if deps.Collector != nil {
		onStatus = deps.Collector.RecordHTTPStatus
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, onStatus))

	userHandler := NewUserHandler(deps.UserService)
	queryHandler := NewQueryHandler(deps.QueryService)

	// 稼働確認
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccessResponse(w, http.StatusOK, "GenEvA is running!", nil)
	})

	// ヘルスチェック（DB疎通を含む）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.Pinger != nil {
			if err := deps.Pinger.PingContext(r.Context()); err != nil {
				slog.Error("ヘルスチェックでDB疎通に失敗しました", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Prometheusメトリクス
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// ユーザー管理
	r.Post("/login", userHandler.Login)
	r.Get("/user/{username}", userHandler.GetInfo)

	// クエリパイプライン
	r.Post("/query", queryHandler.RunQuery)
	r.Get("/queries/{username}", queryHandler.ListQueries)

	return r
}
