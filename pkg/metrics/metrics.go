package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Gateway metrics
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hutch_gateway_requests_total",
			Help: "Total number of runtime gateway calls by operation, dialect and status class",
		},
		[]string{"op", "dialect", "status"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hutch_gateway_request_duration_seconds",
			Help:    "Runtime gateway call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "dialect"},
	)

	// Deployment metrics
	DeploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hutch_deployments_total",
			Help: "Total number of deployment runs by engine and result",
		},
		[]string{"engine", "result"},
	)

	DeploymentStageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hutch_deployment_stage_failures_total",
			Help: "Total number of deployment failures by stage",
		},
		[]string{"stage"},
	)

	DeploymentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hutch_deployment_duration_seconds",
			Help:    "End-to-end deployment duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"engine"},
	)

	// Managed container inventory
	ManagedContainers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hutch_managed_containers",
			Help: "Number of managed database containers by engine and state",
		},
		[]string{"engine", "state"},
	)
)

func init() {
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewayRequestDuration)
	prometheus.MustRegister(DeploymentsTotal)
	prometheus.MustRegister(DeploymentStageFailures)
	prometheus.MustRegister(DeploymentDuration)
	prometheus.MustRegister(ManagedContainers)
}

// ObserveGatewayRequest records one runtime gateway call.
func ObserveGatewayRequest(op, dialect, status string, duration time.Duration) {
	GatewayRequestsTotal.WithLabelValues(op, dialect, status).Inc()
	GatewayRequestDuration.WithLabelValues(op, dialect).Observe(duration.Seconds())
}

// ObserveDeployment records the outcome of one deployment run.
func ObserveDeployment(engine, result string, duration time.Duration) {
	DeploymentsTotal.WithLabelValues(engine, result).Inc()
	DeploymentDuration.WithLabelValues(engine).Observe(duration.Seconds())
}

// ObserveDeploymentFailure records the stage a deployment failed at.
func ObserveDeploymentFailure(stage string) {
	DeploymentStageFailures.WithLabelValues(stage).Inc()
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
