package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	ScanStart   http.HandlerFunc
	ScanStop    http.HandlerFunc
	ScanStatus  http.HandlerFunc
	ScanConfirm http.HandlerFunc
	ScanCancel  http.HandlerFunc

	ChargeStart  http.HandlerFunc
	ChargeStop   http.HandlerFunc
	ChargeActive http.HandlerFunc

	AdminLogin         http.HandlerFunc
	AdminListUsers     http.HandlerFunc
	AdminCreateUser    http.HandlerFunc
	AdminUpdateUser    http.HandlerFunc
	AdminDeleteUser    http.HandlerFunc
	AdminSetActive     http.HandlerFunc
	AdminAdjustBalance http.HandlerFunc
	AdminUserSessions  http.HandlerFunc
	AdminAbortSession  http.HandlerFunc
	AdminLedger        http.HandlerFunc
	AdminAuthLogs      http.HandlerFunc

	WS     http.HandlerFunc
	Health http.HandlerFunc
}

// NewRouter registers endpoints. adminAuth wraps the operator surface;
// the kiosk surface is open to the co-located UI.
func NewRouter(routes Routes, adminAuth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, handler http.HandlerFunc) {
		if handler != nil {
			mux.Handle(pattern, handler)
		}
	}
	admin := func(pattern string, handler http.HandlerFunc) {
		if handler != nil {
			mux.Handle(pattern, adminAuth(handler))
		}
	}

	handle("POST /scan/start", routes.ScanStart)
	handle("POST /scan/stop", routes.ScanStop)
	handle("GET /scan/status", routes.ScanStatus)
	handle("POST /scan/confirm", routes.ScanConfirm)
	handle("POST /scan/cancel", routes.ScanCancel)

	handle("POST /charge/start", routes.ChargeStart)
	handle("POST /charge/stop", routes.ChargeStop)
	handle("GET /charge/active", routes.ChargeActive)

	handle("POST /admin/login", routes.AdminLogin)
	admin("GET /admin/users", routes.AdminListUsers)
	admin("POST /admin/users", routes.AdminCreateUser)
	admin("PUT /admin/users/{id}", routes.AdminUpdateUser)
	admin("DELETE /admin/users/{id}", routes.AdminDeleteUser)
	admin("POST /admin/users/{id}/active", routes.AdminSetActive)
	admin("POST /admin/users/{id}/adjust", routes.AdminAdjustBalance)
	admin("GET /admin/users/{id}/sessions", routes.AdminUserSessions)
	admin("POST /admin/sessions/{id}/abort", routes.AdminAbortSession)
	admin("GET /admin/ledger", routes.AdminLedger)
	admin("GET /admin/auth-logs", routes.AdminAuthLogs)

	handle("GET /ws", routes.WS)
	handle("GET /health", routes.Health)

	return mux
}
