package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/service"
)

// ScanHandler exposes the scan window and confirmation flow to the kiosk UI.
type ScanHandler struct {
	ctrl   *service.ScanController
	gate   *service.ConfirmationGate
	logger *zap.Logger
}

// NewScanHandler builds handler set.
func NewScanHandler(ctrl *service.ScanController, gate *service.ConfirmationGate, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{ctrl: ctrl, gate: gate, logger: logger}
}

// HandleStart handles POST /scan/start.
func (h *ScanHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Start(r.Context()); err != nil {
		if errors.Is(err, service.ErrScanInProgress) {
			writeError(w, http.StatusConflict, "scan already in progress")
			return
		}
		h.logger.Error("failed to start scan", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "failed to start scan")
		return
	}
	writeJSON(w, http.StatusAccepted, h.ctrl.Status())
}

// HandleStop handles POST /scan/stop.
func (h *ScanHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Stop()
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// HandleStatus handles GET /scan/status.
func (h *ScanHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// HandleConfirm handles POST /scan/confirm: the explicit human
// confirmation that turns a detected scan into an authenticated session.
func (h *ScanHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	detected, ok := h.ctrl.Detected()
	if !ok {
		writeError(w, http.StatusConflict, "no detected identity to confirm")
		return
	}

	account, err := h.gate.Confirm(r.Context(), detected)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIdentityMismatch):
			h.ctrl.Acknowledge()
			writeError(w, http.StatusConflict, "identity mismatch, please scan again")
		case errors.Is(err, repository.ErrAccountInactive):
			h.ctrl.Acknowledge()
			writeError(w, http.StatusForbidden, "account is inactive")
		default:
			// Transient registry failure; the detection stays pending
			// so the user can retry the confirmation.
			h.logger.Error("confirm failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "confirmation failed, try again")
		}
		return
	}

	h.ctrl.Acknowledge()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id":    account.ID,
		"display_name":  account.DisplayName,
		"balance_cents": account.BalanceCents,
	})
}

// HandleCancel handles POST /scan/cancel: discard the detected payload or
// an open window. No registry or log mutation occurs.
func (h *ScanHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Stop()
	h.ctrl.Acknowledge()
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}
