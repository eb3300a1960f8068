// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// クエリパイプラインとHTTP層から利用する。
type MetricsCollector interface {
	RecordQuerySuccess()
	RecordQueryFailure(reason string)
	RecordLookupLatency(duration time.Duration)
	RecordSummaryDegraded()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	querySuccess    prometheus.Counter
	queryFail       *prometheus.CounterVec
	lookupLatency   prometheus.Histogram
	summaryDegraded prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		querySuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geneva_query_success_total",
			Help: "クエリパイプライン成功の合計数",
		}),
		queryFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geneva_query_fail_total",
			Help: "クエリパイプライン失敗の合計数（失敗理由別）",
		}, []string{"reason"}),
		lookupLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geneva_lookup_latency_seconds",
			Help:    "Open Targetsアソシエーション取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		summaryDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geneva_summary_degraded_total",
			Help: "劣化レコードとして返された要約の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geneva_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.querySuccess,
		c.queryFail,
		c.lookupLatency,
		c.summaryDegraded,
		c.httpStatus,
	)

	return c
}

// RecordQuerySuccess はパイプライン成功を記録する。
func (c *Collector) RecordQuerySuccess() {
	c.querySuccess.Inc()
}

// RecordQueryFailure はパイプライン失敗を失敗理由とともに記録する。
func (c *Collector) RecordQueryFailure(reason string) {
	c.queryFail.WithLabelValues(reason).Inc()
}

// RecordLookupLatency はアソシエーション取得のレイテンシを記録する。
func (c *Collector) RecordLookupLatency(duration time.Duration) {
	c.lookupLatency.Observe(duration.Seconds())
}

// RecordSummaryDegraded は劣化要約の発生を記録する。
func (c *Collector) RecordSummaryDegraded() {
	c.summaryDegraded.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
