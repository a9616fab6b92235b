package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the full HTTP surface: ledger operations, on-demand
// job triggers, health, and Prometheus metrics.
func NewRouter(ledger *LedgerHandler, jobs *JobsHandler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/v1/withdrawals", ledger.HandleSubmitWithdrawal).Methods("POST")
	router.HandleFunc("/api/v1/withdrawals/reject", ledger.HandleRejectWithdrawal).Methods("POST")
	router.HandleFunc("/api/v1/activities/settle", ledger.HandleSettleActivity).Methods("POST")
	router.HandleFunc("/api/v1/earnings/lifetime", ledger.HandleAddLifetimeEarnings).Methods("POST")

	router.HandleFunc("/api/v1/jobs/simulate-profits", jobs.HandleSimulateProfits).Methods("POST")
	router.HandleFunc("/api/v1/jobs/run-maintenance", jobs.HandleRunMaintenance).Methods("POST")
	router.HandleFunc("/api/v1/jobs/reset-monthly-stats", jobs.HandleResetMonthlyStats).Methods("POST")

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, "ok")
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
