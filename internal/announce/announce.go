package announce

import (
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/identity"
	"github.com/sensdot/sensdot/internal/logging"
)

const (
	// ServiceType is the advertised mDNS service type
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."
)

// Announcer registers the portal's mDNS service for the duration of
// configuration mode
type Announcer struct {
	id      identity.Identity
	port    int
	version string

	mu     sync.Mutex
	server *zeroconf.Server
}

// New builds an announcer for the portal at the given port
func New(id identity.Identity, port int, version string) *Announcer {
	return &Announcer{id: id, port: port, version: version}
}

// Start registers the service. The instance name matches the AP SSID so
// the portal shows up as the same name the operator just connected to.
func (a *Announcer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	txt := []string{
		"id=" + a.id.DeviceID,
		"version=" + a.version,
	}

	server, err := zeroconf.Register(a.id.APSSID(), ServiceType, ServiceDomain, a.port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	logging.Info("mDNS service registered",
		zap.String("instance", a.id.APSSID()),
		zap.Int("port", a.port),
	)
	return nil
}

// Stop withdraws the registration. Safe to call without a prior Start.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}
