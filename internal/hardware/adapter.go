package hardware

import (
	"context"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

// Adapter abstracts the charging hardware and the RFID reader front end.
// ScanPresence is best-effort and informational only; detection of a login
// goes through the authentication log, not through this call.
type Adapter interface {
	StartCharging(ctx context.Context, targetPercent float64) error
	StopCharging(ctx context.Context) error
	ReadTelemetry(ctx context.Context) (models.Telemetry, error)
	ScanPresence(ctx context.Context) (cardID string, present bool, err error)
}
