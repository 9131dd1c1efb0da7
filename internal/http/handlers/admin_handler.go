package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/service"
)

// AdminHandler exposes the operator surface.
type AdminHandler struct {
	admin  *service.AdminService
	logger *zap.Logger
}

// NewAdminHandler builds handler set.
func NewAdminHandler(admin *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// HandleListUsers handles GET /admin/users.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.admin.ListAccounts(r.Context())
	if err != nil {
		h.logger.Error("list accounts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

type userRequest struct {
	CardID        string `json:"card_id"`
	DisplayName   string `json:"display_name"`
	ContactNumber string `json:"contact_number"`
	BalanceCents  int64  `json:"balance_cents"`
	Active        bool   `json:"active"`
}

// HandleCreateUser handles POST /admin/users.
func (h *AdminHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	account := &models.Account{
		CardID:        req.CardID,
		DisplayName:   req.DisplayName,
		ContactNumber: req.ContactNumber,
		BalanceCents:  req.BalanceCents,
		Active:        req.Active,
	}
	if err := h.admin.CreateAccount(r.Context(), account); err != nil {
		h.logger.Error("create account failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// HandleUpdateUser handles PUT /admin/users/{id}.
func (h *AdminHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	account := &models.Account{
		ID:            id,
		CardID:        req.CardID,
		DisplayName:   req.DisplayName,
		ContactNumber: req.ContactNumber,
	}
	if err := h.admin.UpdateAccount(r.Context(), account); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error("update account failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.admin.DeleteAccount(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error("delete account failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles POST /admin/users/{id}/active.
func (h *AdminHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.admin.SetAccountActive(r.Context(), id, req.Active); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error("set active failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type adjustRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	SessionID   *int64 `json:"session_id,omitempty"`
}

// HandleAdjustBalance handles POST /admin/users/{id}/adjust. A positive
// amount credits the account (e.g. a compensating refund), a negative
// amount debits it; both leave an admin_adjustment ledger row.
func (h *AdminHandler) HandleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	account, err := h.admin.AdjustBalance(r.Context(), id, req.AmountCents, req.Description, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		case errors.Is(err, repository.ErrInsufficientFunds):
			writeError(w, http.StatusConflict, "adjustment would make the balance negative")
		default:
			h.logger.Error("adjust balance failed", zap.Error(err))
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleAbortSession handles POST /admin/sessions/{id}/abort.
func (h *AdminHandler) HandleAbortSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.admin.AbortSession(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, repository.ErrSessionNotActive):
			writeError(w, http.StatusConflict, "session already finished")
		default:
			h.logger.Error("abort session failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to abort session")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleUserSessions handles GET /admin/users/{id}/sessions.
func (h *AdminHandler) HandleUserSessions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	sessions, err := h.admin.SessionsForAccount(r.Context(), id, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// HandleLedger handles GET /admin/ledger.
func (h *AdminHandler) HandleLedger(w http.ResponseWriter, r *http.Request) {
	accountID := int64(queryInt(r, "account_id", 0))
	txs, err := h.admin.RecentLedger(r.Context(), accountID, queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list ledger failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list ledger")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// HandleAuthLogs handles GET /admin/auth-logs.
func (h *AdminHandler) HandleAuthLogs(w http.ResponseWriter, r *http.Request) {
	events, err := h.admin.RecentAuthEvents(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("list auth logs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list auth logs")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
