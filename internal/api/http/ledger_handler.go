package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/security"
	"voltport-backend/internal/service"
)

// LedgerHandler exposes the on-demand ledger operations. Auth tokens travel
// in the request body, matching the existing client contract.
type LedgerHandler struct {
	ledgerSvc      service.LedgerService
	verifier       security.TokenVerifier
	internalSecret string
}

func NewLedgerHandler(ledgerSvc service.LedgerService, verifier security.TokenVerifier, internalSecret string) *LedgerHandler {
	return &LedgerHandler{
		ledgerSvc:      ledgerSvc,
		verifier:       verifier,
		internalSecret: internalSecret,
	}
}

type submitWithdrawalRequest struct {
	AuthToken string            `json:"authToken"`
	Amount    float64           `json:"amount"`
	Details   map[string]string `json:"details"`
	Code      string            `json:"code"`
}

func (h *LedgerHandler) HandleSubmitWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req submitWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", domain.ErrValidation))
		return
	}
	identity, err := h.verifier.Verify(r.Context(), req.AuthToken)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.ledgerSvc.SubmitWithdrawal(r.Context(), identity.UID, req.Amount, req.Details, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, "Withdrawal request submitted.")
}

type activityRequest struct {
	AuthToken  string `json:"authToken"`
	ActivityID string `json:"activityId"`
}

func (h *LedgerHandler) HandleRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", domain.ErrValidation))
		return
	}
	if req.ActivityID == "" {
		writeError(w, fmt.Errorf("%w: activityId is required", domain.ErrValidation))
		return
	}
	identity, err := h.verifier.Verify(r.Context(), req.AuthToken)
	if err != nil {
		writeError(w, err)
		return
	}
	// The engine trusts the elevated-privilege claim verbatim.
	if !identity.Admin {
		writeError(w, fmt.Errorf("%w: caller is not an admin", domain.ErrUnauthorized))
		return
	}
	if err := h.ledgerSvc.RejectWithdrawal(r.Context(), req.ActivityID); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, "Withdrawal rejected and funds returned.")
}

func (h *LedgerHandler) HandleSettleActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", domain.ErrValidation))
		return
	}
	if req.ActivityID == "" {
		writeError(w, fmt.Errorf("%w: activityId is required", domain.ErrValidation))
		return
	}
	identity, err := h.verifier.Verify(r.Context(), req.AuthToken)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.ledgerSvc.SettleActivity(r.Context(), identity.UID, req.ActivityID); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, "Balance updated.")
}

type lifetimeEarningsRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// HandleAddLifetimeEarnings is called service-to-service and is guarded by
// the internal API secret rather than a user token.
func (h *LedgerHandler) HandleAddLifetimeEarnings(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Internal-Secret") != h.internalSecret {
		writeError(w, fmt.Errorf("%w: invalid internal secret", domain.ErrUnauthorized))
		return
	}
	var req lifetimeEarningsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body", domain.ErrValidation))
		return
	}
	if req.UserID == "" {
		writeError(w, fmt.Errorf("%w: userId is required", domain.ErrValidation))
		return
	}
	if err := h.ledgerSvc.AddLifetimeEarnings(r.Context(), req.UserID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, fmt.Sprintf("Earnings updated for user %s.", req.UserID))
}
