package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moodchef"

var (
	// HTTPRequests 依路由與狀態碼統計的請求數
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration 請求耗時
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// ActiveRequests 處理中的請求
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Number of active HTTP requests",
		},
	)

	// PipelineOutcomes 推薦流程結果，code 為 ok 或錯誤代碼
	PipelineOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Suggestion pipeline outcomes by source and result code",
		},
		[]string{"source", "code"},
	)

	// EnrichmentLookups 候選食譜補充資料查詢
	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_lookups_total",
			Help:      "Candidate detail lookups by result",
		},
		[]string{"result"},
	)

	// UpstreamDuration 外部服務呼叫耗時
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	// CacheOps 快取命中與未命中
	CacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups by cache type and result",
		},
		[]string{"cache", "result"},
	)
)

// RecordRequest 記錄一次 HTTP 請求
func RecordRequest(method, route string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	HTTPRequests.WithLabelValues(method, route, s).Inc()
	HTTPDuration.WithLabelValues(method, route, s).Observe(duration.Seconds())
}
