package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/redisstore"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/service"
)

// ChargeHandler exposes the paid-session lifecycle to the kiosk UI.
type ChargeHandler struct {
	charges  *service.ChargeService
	accounts *repository.AccountRepository
	sessions *repository.SessionRepository
	cache    *redisstore.Store
	logger   *zap.Logger
}

// NewChargeHandler builds handler set. cache may be nil.
func NewChargeHandler(
	charges *service.ChargeService,
	accounts *repository.AccountRepository,
	sessions *repository.SessionRepository,
	cache *redisstore.Store,
	logger *zap.Logger,
) *ChargeHandler {
	return &ChargeHandler{
		charges:  charges,
		accounts: accounts,
		sessions: sessions,
		cache:    cache,
		logger:   logger,
	}
}

type chargeStartRequest struct {
	AccountID   int64 `json:"account_id"`
	AmountCents int64 `json:"amount_cents"`
}

// HandleStart handles POST /charge/start.
func (h *ChargeHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req chargeStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.AccountID == 0 {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	account, err := h.accounts.FindByID(r.Context(), req.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error("account lookup failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "registry unavailable")
		return
	}

	session, err := h.charges.StartCharge(r.Context(), account, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientFunds):
			writeError(w, http.StatusConflict, "insufficient funds")
		case errors.Is(err, repository.ErrSessionAlreadyActive):
			writeError(w, http.StatusConflict, "a charging session is already active for this account")
		case errors.Is(err, repository.ErrAccountInactive):
			writeError(w, http.StatusForbidden, "account is inactive")
		case errors.Is(err, service.ErrHardwareStartFailed):
			// The debit committed; report the session so the operator
			// can reconcile it.
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":      "charging hardware failed to start; contact an operator",
				"session_id": session.ID,
			})
		default:
			h.logger.Error("start charge failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to start charging")
		}
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

type chargeStopRequest struct {
	SessionID int64 `json:"session_id"`
}

// HandleStop handles POST /charge/stop. With no session_id the active
// session of the station is stopped.
func (h *ChargeHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	var req chargeStopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	session, err := h.lookupSession(r, req.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		h.logger.Error("session lookup failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}

	if err := h.charges.StopCharge(r.Context(), session); err != nil {
		if errors.Is(err, repository.ErrSessionNotActive) {
			writeError(w, http.StatusConflict, "session already finished")
			return
		}
		h.logger.Error("stop charge failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to stop charging")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleActive handles GET /charge/active.
func (h *ChargeHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if charge, err := h.cache.Current(r.Context()); err == nil {
			writeJSON(w, http.StatusOK, charge)
			return
		}
	}

	session, err := h.sessions.ActiveSession(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		h.logger.Error("active session lookup failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *ChargeHandler) lookupSession(r *http.Request, sessionID int64) (*models.ChargingSession, error) {
	if sessionID > 0 {
		return h.sessions.GetByID(r.Context(), sessionID)
	}
	return h.sessions.ActiveSession(r.Context())
}
