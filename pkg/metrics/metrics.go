// Package metrics 提供 Prometheus 指标定义与注册
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// 管道请求计数，按请求名、类型、结果区分
	RequestsTotal *prometheus.CounterVec
	// 管道请求耗时
	RequestDuration *prometheus.HistogramVec
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec
	// 网关事件计数，按事件类型与处理结果区分
	GatewayEventsTotal *prometheus.CounterVec
	// 发件箱投递计数
	OutboxMessagesTotal *prometheus.CounterVec
}

// New 创建并注册指标，每个实例使用独立的 registry
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_total",
			Help:      "Total commands and queries dispatched through the pipeline",
		}, []string{"request", "kind", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_request_duration_seconds",
			Help:      "Pipeline request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request", "kind"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		GatewayEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_events_total",
			Help:      "Payment gateway webhook events by type and outcome",
		}, []string{"type", "outcome"}),
		OutboxMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_messages_total",
			Help:      "Outbox messages relayed by topic and outcome",
		}, []string{"topic", "outcome"}),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GatewayEventsTotal,
		m.OutboxMessagesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次管道请求
func (m *Metrics) ObserveRequest(request, kind, outcome string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(request, kind, outcome).Inc()
	m.RequestDuration.WithLabelValues(request, kind).Observe(elapsed.Seconds())
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveGatewayEvent 记录一次网关事件处理结果
func (m *Metrics) ObserveGatewayEvent(eventType, outcome string) {
	m.GatewayEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// ObserveOutbox 记录一次发件箱投递结果
func (m *Metrics) ObserveOutbox(topic, outcome string) {
	m.OutboxMessagesTotal.WithLabelValues(topic, outcome).Inc()
}
