package http

import (
	"fmt"
	"net/http"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/service"
)

// JobsHandler triggers the scheduled engines on demand. All routes require
// the internal API secret.
type JobsHandler struct {
	simulationSvc  service.SimulationService
	statsSvc       service.StatsService
	internalSecret string
}

func NewJobsHandler(simulationSvc service.SimulationService, statsSvc service.StatsService, internalSecret string) *JobsHandler {
	return &JobsHandler{
		simulationSvc:  simulationSvc,
		statsSvc:       statsSvc,
		internalSecret: internalSecret,
	}
}

func (h *JobsHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Internal-Secret") != h.internalSecret {
		writeError(w, fmt.Errorf("%w: invalid internal secret", domain.ErrUnauthorized))
		return false
	}
	return true
}

func (h *JobsHandler) HandleSimulateProfits(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	summary, err := h.simulationSvc.RunProfitSimulation(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *JobsHandler) HandleRunMaintenance(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	logged, err := h.simulationSvc.RunMaintenance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, fmt.Sprintf("Maintenance run complete. Logged %d events.", logged))
}

func (h *JobsHandler) HandleResetMonthlyStats(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	summary, err := h.statsSvc.ResetMonthlyStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	// A partial failure still reports which chunks committed; the caller
	// decides whether to retry.
	status := http.StatusOK
	if summary.PartialFailure() {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, summary)
}
