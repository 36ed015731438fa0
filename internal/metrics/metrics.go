// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証・コンテスト・ワーカー・HTTP層から利用する。
type MetricsCollector interface {
	RecordHandshakeStarted()
	RecordHandshakeCompleted()
	RecordHandshakeFailed(reason string)
	RecordContestCreated()
	RecordContestCreateFailed(kind string)
	RecordContestsDeactivated(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	handshakeStarted   prometheus.Counter
	handshakeCompleted prometheus.Counter
	handshakeFailed    *prometheus.CounterVec
	contestCreated     prometheus.Counter
	contestCreateFail  *prometheus.CounterVec
	contestDeactivated prometheus.Counter
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		handshakeStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikicontest_oauth_handshake_started_total",
			Help: "開始したOAuthハンドシェイクの合計数",
		}),
		handshakeCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikicontest_oauth_handshake_completed_total",
			Help: "完了したOAuthハンドシェイクの合計数",
		}),
		handshakeFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikicontest_oauth_handshake_failed_total",
			Help: "失敗したOAuthハンドシェイクの合計数（原因別）",
		}, []string{"reason"}),
		contestCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikicontest_contest_created_total",
			Help: "作成されたコンテストの合計数",
		}),
		contestCreateFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikicontest_contest_create_failed_total",
			Help: "コンテスト作成失敗の合計数（区分別）",
		}, []string{"kind"}),
		contestDeactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikicontest_contest_deactivated_total",
			Help: "終了日を過ぎて非アクティブ化されたコンテストの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikicontest_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.handshakeStarted,
		c.handshakeCompleted,
		c.handshakeFailed,
		c.contestCreated,
		c.contestCreateFail,
		c.contestDeactivated,
		c.httpStatus,
	)

	return c
}

// RecordHandshakeStarted はハンドシェイク開始を記録する。
func (c *Collector) RecordHandshakeStarted() {
	c.handshakeStarted.Inc()
}

// RecordHandshakeCompleted はハンドシェイク完了を記録する。
func (c *Collector) RecordHandshakeCompleted() {
	c.handshakeCompleted.Inc()
}

// RecordHandshakeFailed はハンドシェイク失敗を原因別に記録する。
func (c *Collector) RecordHandshakeFailed(reason string) {
	c.handshakeFailed.WithLabelValues(reason).Inc()
}

// RecordContestCreated はコンテスト作成を記録する。
func (c *Collector) RecordContestCreated() {
	c.contestCreated.Inc()
}

// RecordContestCreateFailed はコンテスト作成失敗を区分別に記録する。
func (c *Collector) RecordContestCreateFailed(kind string) {
	c.contestCreateFail.WithLabelValues(kind).Inc()
}

// RecordContestsDeactivated は非アクティブ化したコンテスト数を記録する。
func (c *Collector) RecordContestsDeactivated(count int) {
	c.contestDeactivated.Add(float64(count))
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
