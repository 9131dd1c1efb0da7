package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/auth"
)

// AuthHandler issues admin tokens.
type AuthHandler struct {
	tokens       *auth.TokenService
	adminLogin   string
	passwordHash string
	logger       *zap.Logger
}

// NewAuthHandler builds handler.
func NewAuthHandler(tokens *auth.TokenService, adminLogin, passwordHash string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		tokens:       tokens,
		adminLogin:   adminLogin,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// HandleLogin handles POST /admin/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.Login != h.adminLogin || auth.VerifyPassword(h.passwordHash, req.Password) != nil {
		h.logger.Warn("admin login rejected", zap.String("login", req.Login))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Generate(req.Login)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
