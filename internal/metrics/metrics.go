package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChatRequests counts chat invocations per runtime and provider.
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferryman_chat_requests_total",
			Help: "Total number of chat requests",
		},
		[]string{"runtime", "provider", "status"},
	)

	// RPCDuration tracks socket round-trip latency per operation.
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ferryman_rpc_duration_seconds",
			Help:    "Runtime socket RPC duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"runtime", "op"},
	)

	// RuntimeUp reports liveness per runtime, set by the health checker.
	RuntimeUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ferryman_runtime_up",
			Help: "Whether the runtime responded to its last liveness probe",
		},
		[]string{"runtime"},
	)

	// SubprocessExits counts child process terminations per runtime.
	SubprocessExits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferryman_subprocess_exits_total",
			Help: "Total number of runtime subprocess exits",
		},
		[]string{"runtime", "status"},
	)

	// ToolCalls counts utility tool invocations.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferryman_tool_calls_total",
			Help: "Total number of runtime tool calls",
		},
		[]string{"runtime", "tool", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordChat records one chat request outcome.
func RecordChat(runtime, provider string, err error) {
	ChatRequests.WithLabelValues(runtime, provider, status(err)).Inc()
}

// RecordToolCall records one tool invocation outcome.
func RecordToolCall(runtime, tool string, err error) {
	ToolCalls.WithLabelValues(runtime, tool, status(err)).Inc()
}

// ObserveRPC records one socket round trip.
func ObserveRPC(runtime, op string, d time.Duration) {
	RPCDuration.WithLabelValues(runtime, op).Observe(d.Seconds())
}

// SetRuntimeUp publishes the result of a liveness probe.
func SetRuntimeUp(runtime string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	RuntimeUp.WithLabelValues(runtime).Set(v)
}

// RecordSubprocessExit counts a child process termination.
func RecordSubprocessExit(runtime, status string) {
	SubprocessExits.WithLabelValues(runtime, status).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
