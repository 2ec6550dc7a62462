package netconn

import (
	"context"
	"errors"
	"net/netip"
	"time"
)

// Connection errors. ErrAuthFailure is surfaced when the backend can
// distinguish bad credentials from a plain timeout; the orchestrator
// treats both as a skipped cycle either way.
var (
	ErrAssociationTimeout = errors.New("station association timed out")
	ErrAuthFailure        = errors.New("station authentication failed")
)

// Network is one entry from a WiFi scan
type Network struct {
	SSID     string `json:"ssid"`
	SignalPC int    `json:"signal"`   // signal strength, percent
	Security string `json:"security"` // e.g. "WPA2", empty for open networks
}

// Connector drives the WiFi radio. One ConnectStation call is exactly
// one attempt, bounded by its timeout; on failure any partial
// association is torn down before the call returns, so repeated calls
// never leak state.
type Connector interface {
	ConnectStation(ctx context.Context, ssid, password string, timeout time.Duration) (netip.Addr, error)
	DisconnectStation(ctx context.Context) error
	StartAP(ctx context.Context, ssid, passphrase string) error
	StopAP(ctx context.Context) error
	Scan(ctx context.Context) ([]Network, error)
}

// AttemptState is the lifecycle of one connection attempt, for logging
type AttemptState int

// Attempt states
const (
	StateIdle AttemptState = iota
	StateConnecting
	StateConnected
	StateFailed
)

// String implements fmt.Stringer
func (s AttemptState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
