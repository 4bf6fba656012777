// Package metrics 提供记录合并流程的 Prometheus 监控指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================================
//                          Prometheus 监控指标
// ============================================================================

var (
	// keySynthesisTotal 密钥合成次数（按函数）
	keySynthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordjoin",
			Subsystem: "keys",
			Name:      "synthesis_total",
			Help:      "Total number of proving/verifying key syntheses by function",
		},
		[]string{"function"},
	)

	// keyCacheLookupTotal 密钥缓存查询次数（按结果）
	keyCacheLookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordjoin",
			Subsystem: "keys",
			Name:      "cache_lookup_total",
			Help:      "Total number of key cache lookups by result",
		},
		[]string{"result"}, // hit, miss, disk_hit
	)

	// provingDuration 证明生成耗时
	provingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recordjoin",
			Subsystem: "execution",
			Name:      "proving_duration_seconds",
			Help:      "Duration of proof generation in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms ~ 20s
		},
		[]string{"function"},
	)

	// inclusionTotal 包含性证明解析次数（按结果）
	inclusionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordjoin",
			Subsystem: "inclusion",
			Name:      "resolve_total",
			Help:      "Total number of inclusion resolutions by result",
		},
		[]string{"result"}, // success, network, stale
	)

	// joinTotal join 调用次数（按结果）
	joinTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordjoin",
			Subsystem: "join",
			Name:      "total",
			Help:      "Total number of join calls by result",
		},
		[]string{"result"},
	)

	// httpRequestTotal 开发节点 HTTP 请求次数
	httpRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordjoin",
			Subsystem: "mocknode",
			Name:      "requests_total",
			Help:      "Total number of development node API requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration 开发节点 HTTP 请求耗时
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recordjoin",
			Subsystem: "mocknode",
			Name:      "request_duration_seconds",
			Help:      "Development node API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "path"},
	)
)

// ============================================================================
//                          指标注册
// ============================================================================

func init() {
	prometheus.MustRegister(
		keySynthesisTotal,
		keyCacheLookupTotal,
		provingDuration,
		inclusionTotal,
		joinTotal,
		httpRequestTotal,
		httpRequestDuration,
	)
}

// RecordKeySynthesis 记录一次密钥合成
func RecordKeySynthesis(function string) {
	keySynthesisTotal.WithLabelValues(function).Inc()
}

// RecordKeyCacheLookup 记录一次密钥缓存查询
func RecordKeyCacheLookup(result string) {
	keyCacheLookupTotal.WithLabelValues(result).Inc()
}

// ObserveProving 记录证明生成耗时
func ObserveProving(function string, d time.Duration) {
	provingDuration.WithLabelValues(function).Observe(d.Seconds())
}

// RecordInclusion 记录包含性证明解析结果
func RecordInclusion(result string) {
	inclusionTotal.WithLabelValues(result).Inc()
}

// RecordJoin 记录 join 调用结果（success 或失败阶段名）
func RecordJoin(result string) {
	joinTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest 记录一次开发节点 API 请求
func ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	httpRequestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler 默认注册表的 HTTP 导出处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
