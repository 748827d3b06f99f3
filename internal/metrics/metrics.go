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
// 閲覧サービスやミドルウェアから利用する。
type MetricsCollector interface {
	RecordQuery(sortBy string, resultCount int, latency time.Duration)
	RecordTransition(action string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	queries        *prometheus.CounterVec
	zeroResults    prometheus.Counter
	queryResults   prometheus.Histogram
	queryLatency   prometheus.Histogram
	transitions    *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kbase_queries_total",
			Help: "ソートキー別の検索実行数",
		}, []string{"sort_by"}),
		zeroResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kbase_zero_result_queries_total",
			Help: "結果が0件だった検索の合計数",
		}),
		queryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kbase_query_results",
			Help:    "1回の検索で返った資料数",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kbase_query_latency_seconds",
			Help:    "絞り込みと並べ替えのレイテンシ（秒）",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kbase_transitions_total",
			Help: "操作種別ごとの状態遷移数",
		}, []string{"action"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kbase_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.queries,
		c.zeroResults,
		c.queryResults,
		c.queryLatency,
		c.transitions,
		c.httpStatus,
	)

	return c
}

// RecordQuery は検索1回分の結果件数とレイテンシを記録する。
func (c *Collector) RecordQuery(sortBy string, resultCount int, latency time.Duration) {
	c.queries.WithLabelValues(sortBy).Inc()
	if resultCount == 0 {
		c.zeroResults.Inc()
	}
	c.queryResults.Observe(float64(resultCount))
	c.queryLatency.Observe(latency.Seconds())
}

// RecordTransition は状態遷移を記録する。
func (c *Collector) RecordTransition(action string) {
	c.transitions.WithLabelValues(action).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RegisterSessionGauge は保持中のセッション数を公開するゲージを登録する。
// 値はスクレイプのたびに count から読み取るため、期限切れによる削除も反映される。
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "kbase_active_sessions",
		Help: "保持中の閲覧セッション数",
	}, func() float64 {
		return float64(count())
	}))
}

// Nop は何も記録しない MetricsCollector。CLIやテストで使う。
type Nop struct{}

func (Nop) RecordQuery(string, int, time.Duration) {}
func (Nop) RecordTransition(string)                {}
func (Nop) RecordHTTPStatus(int)                   {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
