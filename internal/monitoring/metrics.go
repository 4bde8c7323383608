package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_trades_total",
			Help: "Total number of closed trades",
		},
		[]string{"instrument", "side", "exit_reason"},
	)

	tradesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_trader_trades_rejected_total",
			Help: "Total number of trade requests rejected by risk checks",
		},
		[]string{"instrument"},
	)

	// Risk state metrics
	currentBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paper_trader_balance",
			Help: "Current account balance",
		},
		[]string{"instrument"},
	)

	currentDrawdown = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paper_trader_drawdown",
			Help: "Current drawdown from the peak balance",
		},
		[]string{"instrument"},
	)

	openPositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paper_trader_open_positions",
			Help: "Number of currently open positions",
		},
		[]string{"instrument"},
	)

	riskLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paper_trader_risk_level",
			Help: "Current risk level (0=green, 1=yellow, 2=red)",
		},
		[]string{"instrument"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradesRejected)
	prometheus.MustRegister(currentBalance)
	prometheus.MustRegister(currentDrawdown)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(riskLevel)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records a closed trade
func RecordTrade(instrument, side, exitReason string) {
	tradesTotal.WithLabelValues(instrument, side, exitReason).Inc()
}

// RecordRejection records a rejected trade request
func RecordRejection(instrument string) {
	tradesRejected.WithLabelValues(instrument).Inc()
}

// UpdateRiskState publishes the current risk state gauges
func UpdateRiskState(instrument string, balance, drawdown float64, open int, level string) {
	currentBalance.WithLabelValues(instrument).Set(balance)
	currentDrawdown.WithLabelValues(instrument).Set(drawdown)
	openPositions.WithLabelValues(instrument).Set(float64(open))

	levelValue := 0.0
	switch level {
	case "yellow":
		levelValue = 1.0
	case "red":
		levelValue = 2.0
	}
	riskLevel.WithLabelValues(instrument).Set(levelValue)
}
