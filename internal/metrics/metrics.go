package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Balance monitoring
	ReconcileCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_cycles_total",
			Help: "Completed balance reconciliation cycles",
		},
	)
	WalletsChecked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_wallets_checked_total",
			Help: "Per-wallet reconciliations attempted",
		},
	)
	DepositsCredited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deposits_credited_total",
			Help: "Deposits detected and credited to the ledger",
		},
	)
	OracleFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oracle_failures_total",
			Help: "Failed balance reads from the Solana RPC endpoint",
		},
	)
	LedgerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_failures_total",
			Help: "Failed ledger writes during reconciliation",
		},
	)

	// Trading
	TradesExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_executed_total",
			Help: "Completed in-ledger asset conversions",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	// Price feed
	PriceSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_feed_subscribers",
			Help: "Connected price feed websocket clients",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ReconcileCycles)
	prometheus.MustRegister(WalletsChecked)
	prometheus.MustRegister(DepositsCredited)
	prometheus.MustRegister(OracleFailures)
	prometheus.MustRegister(LedgerFailures)
	prometheus.MustRegister(TradesExecuted)
	prometheus.MustRegister(WorkerQueueDepth)
	prometheus.MustRegister(PriceSubscribers)
}
