package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 失敗したステージ
const (
	stageAccept  = "accept"
	stageRead    = "read"
	stagePayload = "payload"
	stageWrite   = "write"
	stageClose   = "close"
)

// Metrics は応答ループのPrometheusメトリクス
type Metrics struct {
	Connections  prometheus.Counter
	BytesRead    prometheus.Counter
	BytesWritten prometheus.Counter
	Failures     *prometheus.CounterVec
	Serving      prometheus.Gauge
}

// NewMetrics はメトリクスを作成して reg に登録する
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Connections: factory.NewCounter(prometheus.CounterOpts{
			Name: "tinyresponder_connections_total",
			Help: "Number of client connections served.",
		}),
		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "tinyresponder_request_bytes_total",
			Help: "Bytes read from clients.",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "tinyresponder_response_bytes_total",
			Help: "Bytes written to clients.",
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tinyresponder_failures_total",
			Help: "Fatal failures by stage.",
		}, []string{"stage"}),
		Serving: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tinyresponder_serving",
			Help: "1 while a client connection is being served.",
		}),
	}
}

// newRegistry はプロセス情報を含むレジストリを作成する
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
