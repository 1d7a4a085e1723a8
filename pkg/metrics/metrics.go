package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studytrack_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studytrack_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	moduleCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studytrack_module_completions_total",
		Help: "Count of modules transitioning into the completed state",
	})

	certificateIssuance = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studytrack_certificate_issuance_total",
		Help: "Certificate issuance attempts by source and result",
	}, []string{"source", "result"})
)

// 证书签发来源
const (
	SourceAuto   = "auto"
	SourceDirect = "direct"
)

// 证书签发结果
const (
	ResultIssued    = "issued"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
	ResultError     = "error"
)

// ObserveHTTPRequest 记录一次 HTTP 请求
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncModuleCompletion 模块进入完成状态
func IncModuleCompletion() {
	moduleCompletions.Inc()
}

// ObserveCertificate 记录证书签发结果
func ObserveCertificate(source, result string) {
	certificateIssuance.WithLabelValues(source, result).Inc()
}

// Middleware Gin 请求指标中间件，path 使用路由模板避免高基数
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler Prometheus 抓取端点
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
