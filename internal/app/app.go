package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "github.com/DeadpoolYD/ev-charging-kiosk/libs/db"
	libredis "github.com/DeadpoolYD/ev-charging-kiosk/libs/redis"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/auth"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/config"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/hardware"
	httpserver "github.com/DeadpoolYD/ev-charging-kiosk/internal/http"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/http/handlers"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/http/middleware"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/redisstore"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/rfid"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/service"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/ws"
)

// App wires the kiosk dependency graph.
type App struct {
	server      *httpserver.Server
	reader      *rfid.Reader
	monitor     *service.SessionMonitor
	scans       *service.ScanController
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph. The hardware adapter is the
// simulator; a station build swaps in the real driver here.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	accounts := repository.NewAccountRepository(sqlDB)
	authLogs := repository.NewAuthLogRepository(sqlDB)
	sessions := repository.NewSessionRepository(sqlDB)
	ledger := repository.NewLedgerRepository(sqlDB)
	store := repository.NewChargeStore(sqlDB)
	cache := redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())

	adapter := hardware.NewSimulator(20)

	hub := ws.NewHub(logger)

	scans := service.NewScanController(authLogs, authLogs, adapter, service.ScanControllerConfig{
		Window:       cfg.ScanWindow(),
		PollInterval: cfg.ScanPollInterval(),
		LogPollLimit: cfg.Scan.LogPollLimit,
	}, logger)
	scans.SetNotifier(func(snapshot service.ScanSnapshot) {
		hub.Broadcast("scan", snapshot)
	})

	gate := service.NewConfirmationGate(accounts, logger)

	charges := service.NewChargeService(store, adapter, cache, cfg.Pricing.FullChargeCostCents, logger)
	charges.SetNotifier(func(event service.ChargeEvent) {
		hub.Broadcast(event.Type, event)
	})

	admin := service.NewAdminService(accounts, sessions, ledger, authLogs, store, charges, logger)

	reader := rfid.NewReader(adapter, accounts, authLogs, cfg.ReaderPollInterval(), cfg.ReaderCooldown(), logger)
	monitor := service.NewSessionMonitor(sessions, store, charges, adapter, cfg.MonitorPollInterval(), logger)

	tokens := auth.NewTokenService(cfg.Admin.JWTSecret, cfg.AdminTokenTTL())

	scanHandler := handlers.NewScanHandler(scans, gate, logger)
	chargeHandler := handlers.NewChargeHandler(charges, accounts, sessions, cache, logger)
	authHandler := handlers.NewAuthHandler(tokens, cfg.Admin.Login, cfg.Admin.PasswordHash, logger)
	adminHandler := handlers.NewAdminHandler(admin, logger)

	routes := httpserver.Routes{
		ScanStart:   scanHandler.HandleStart,
		ScanStop:    scanHandler.HandleStop,
		ScanStatus:  scanHandler.HandleStatus,
		ScanConfirm: scanHandler.HandleConfirm,
		ScanCancel:  scanHandler.HandleCancel,

		ChargeStart:  chargeHandler.HandleStart,
		ChargeStop:   chargeHandler.HandleStop,
		ChargeActive: chargeHandler.HandleActive,

		AdminLogin:         authHandler.HandleLogin,
		AdminListUsers:     adminHandler.HandleListUsers,
		AdminCreateUser:    adminHandler.HandleCreateUser,
		AdminUpdateUser:    adminHandler.HandleUpdateUser,
		AdminDeleteUser:    adminHandler.HandleDeleteUser,
		AdminSetActive:     adminHandler.HandleSetActive,
		AdminAdjustBalance: adminHandler.HandleAdjustBalance,
		AdminUserSessions:  adminHandler.HandleUserSessions,
		AdminAbortSession:  adminHandler.HandleAbortSession,
		AdminLedger:        adminHandler.HandleLedger,
		AdminAuthLogs:      adminHandler.HandleAuthLogs,

		WS:     hub.HandleWS,
		Health: handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes, middleware.AdminAuth(tokens))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		reader:      reader,
		monitor:     monitor,
		scans:       scans,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the background loops and the HTTP server, blocking until ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.reader.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("rfid reader stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := a.monitor.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("session monitor stopped", zap.Error(err))
		}
	}()

	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	a.scans.Stop()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
