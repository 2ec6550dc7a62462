package netconn

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sensdot/sensdot/internal/logging"
	"go.uber.org/zap"
)

// NMConnector defaults
const (
	DefaultPollInterval = 500 * time.Millisecond

	// hotspotConnName is the NetworkManager connection name for the
	// configuration access point, so StopAP can take down exactly the
	// connection StartAP created.
	hotspotConnName = "sensdot-ap"

	// teardownTimeout bounds the cleanup commands issued after a failed
	// or finished attempt
	teardownTimeout = 5 * time.Second
)

// NMConnector implements Connector by shelling out to NetworkManager's
// nmcli. It assumes NetworkManager owns the named interface.
type NMConnector struct {
	// Interface is the WiFi interface name, e.g. "wlan0"
	Interface string

	// PollInterval is how often the IP assignment is checked while an
	// association is in progress
	PollInterval time.Duration

	runner   Runner
	apActive bool
}

// NewNMConnector creates a connector for iface using the real exec
// runner
func NewNMConnector(iface string) *NMConnector {
	return NewNMConnectorWithRunner(iface, ExecRunner{})
}

// NewNMConnectorWithRunner creates a connector with a custom runner;
// tests use this to script nmcli behavior.
func NewNMConnectorWithRunner(iface string, runner Runner) *NMConnector {
	return &NMConnector{
		Interface:    iface,
		PollInterval: DefaultPollInterval,
		runner:       runner,
	}
}

// ConnectStation performs one bounded association attempt and returns
// the assigned IPv4 address. On timeout or failure the partial
// association is torn down before returning, so the radio is left idle.
func (c *NMConnector) ConnectStation(ctx context.Context, ssid, password string, timeout time.Duration) (netip.Addr, error) {
	deadline := time.Now().Add(timeout)
	attemptCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	logging.Info("Connecting to WiFi network",
		zap.String("ssid", ssid),
		zap.String("interface", c.Interface),
		zap.Duration("timeout", timeout),
		zap.String("state", StateConnecting.String()),
	)

	args := []string{
		"--wait", strconv.Itoa(int(timeout.Seconds())),
		"device", "wifi", "connect", ssid,
	}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", c.Interface)

	if _, err := c.runner.Run(attemptCtx, "nmcli", args...); err != nil {
		c.teardown(ctx)
		classified := classifyConnectError(err)
		logging.Warn("WiFi association failed",
			zap.String("ssid", ssid),
			zap.String("state", StateFailed.String()),
			zap.Error(classified),
		)
		return netip.Addr{}, classified
	}

	// The connect command returning is not the same as having an
	// address; poll until DHCP finishes or the deadline passes.
	addr, err := c.waitForAddress(attemptCtx)
	if err != nil {
		c.teardown(ctx)
		logging.Warn("WiFi association got no address",
			zap.String("ssid", ssid),
			zap.String("state", StateFailed.String()),
			zap.Error(err),
		)
		return netip.Addr{}, err
	}

	logging.Info("WiFi connected",
		zap.String("ssid", ssid),
		zap.String("ip", addr.String()),
		zap.String("state", StateConnected.String()),
	)
	return addr, nil
}

// waitForAddress polls the interface for an IPv4 address until the
// context deadline
func (c *NMConnector) waitForAddress(ctx context.Context) (netip.Addr, error) {
	for {
		addr, ok, err := c.currentAddress(ctx)
		if err != nil && ctx.Err() != nil {
			return netip.Addr{}, ErrAssociationTimeout
		}
		if err == nil && ok {
			return addr, nil
		}

		timer := time.NewTimer(c.PollInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return netip.Addr{}, ErrAssociationTimeout
		}
	}
}

// currentAddress queries nmcli for the interface's IPv4 address
func (c *NMConnector) currentAddress(ctx context.Context) (netip.Addr, bool, error) {
	out, err := c.runner.Run(ctx, "nmcli", "-g", "IP4.ADDRESS", "device", "show", c.Interface)
	if err != nil {
		return netip.Addr{}, false, err
	}

	// Output is one CIDR per line, e.g. "192.168.1.23/24"
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(line)
		if err != nil {
			continue
		}
		return prefix.Addr(), true, nil
	}
	return netip.Addr{}, false, nil
}

// DisconnectStation takes the interface down. Disconnecting an already
// idle interface is not an error.
func (c *NMConnector) DisconnectStation(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "nmcli", "device", "disconnect", c.Interface)
	if err != nil && !isAlreadyInactive(err) {
		return fmt.Errorf("failed to disconnect %s: %w", c.Interface, err)
	}
	logging.Debug("Station interface disconnected", zap.String("interface", c.Interface))
	return nil
}

// StartAP brings up the configuration hotspot. Calling it while the AP
// is already active is a no-op.
func (c *NMConnector) StartAP(ctx context.Context, ssid, passphrase string) error {
	if c.apActive {
		return nil
	}

	_, err := c.runner.Run(ctx, "nmcli",
		"device", "wifi", "hotspot",
		"ifname", c.Interface,
		"con-name", hotspotConnName,
		"ssid", ssid,
		"password", passphrase,
	)
	if err != nil {
		return fmt.Errorf("failed to start access point %q: %w", ssid, err)
	}

	c.apActive = true
	logging.Info("Access point started",
		zap.String("ssid", ssid),
		zap.String("interface", c.Interface),
	)
	return nil
}

// StopAP takes the hotspot down. Stopping an AP that is not running is
// not an error.
func (c *NMConnector) StopAP(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "nmcli", "connection", "down", hotspotConnName)
	c.apActive = false
	if err != nil && !isAlreadyInactive(err) {
		return fmt.Errorf("failed to stop access point: %w", err)
	}
	logging.Debug("Access point stopped", zap.String("interface", c.Interface))
	return nil
}

// Scan lists visible networks, strongest signal first, deduplicated by
// SSID
func (c *NMConnector) Scan(ctx context.Context) ([]Network, error) {
	out, err := c.runner.Run(ctx, "nmcli",
		"-t", "-f", "SSID,SIGNAL,SECURITY",
		"device", "wifi", "list",
		"ifname", c.Interface,
		"--rescan", "yes",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for networks: %w", err)
	}

	best := make(map[string]Network)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := splitTerse(line, 3)
		if len(fields) != 3 || fields[0] == "" {
			continue
		}

		signal, _ := strconv.Atoi(fields[1])
		net := Network{SSID: fields[0], SignalPC: signal, Security: fields[2]}
		if prev, ok := best[net.SSID]; !ok || net.SignalPC > prev.SignalPC {
			best[net.SSID] = net
		}
	}

	networks := make([]Network, 0, len(best))
	for _, n := range best {
		networks = append(networks, n)
	}
	sort.Slice(networks, func(i, j int) bool {
		if networks[i].SignalPC != networks[j].SignalPC {
			return networks[i].SignalPC > networks[j].SignalPC
		}
		return networks[i].SSID < networks[j].SSID
	})

	logging.Debug("WiFi scan complete", zap.Int("networks", len(networks)))
	return networks, nil
}

// teardown cleans up a failed attempt. It runs on a fresh context so a
// cancelled attempt can still release the radio.
func (c *NMConnector) teardown(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), teardownTimeout)
	defer cancel()

	if _, err := c.runner.Run(ctx, "nmcli", "device", "disconnect", c.Interface); err != nil && !isAlreadyInactive(err) {
		logging.Warn("Failed to tear down partial association",
			zap.String("interface", c.Interface),
			zap.Error(err),
		)
	}
}

// classifyConnectError maps nmcli failures onto the package errors
func classifyConnectError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrAssociationTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "secrets were required"),
		strings.Contains(msg, "no secrets provided"),
		strings.Contains(msg, "802.1x"),
		strings.Contains(msg, "invalid password"):
		return fmt.Errorf("%w: %v", ErrAuthFailure, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return ErrAssociationTimeout
	default:
		return fmt.Errorf("station connect failed: %w", err)
	}
}

// isAlreadyInactive reports whether an nmcli error just means the
// interface or connection was already down
func isAlreadyInactive(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not active") ||
		strings.Contains(msg, "not an active connection") ||
		strings.Contains(msg, "already disconnected") ||
		strings.Contains(msg, "unknown connection")
}

// splitTerse splits one line of `nmcli -t` output on unescaped colons.
// nmcli escapes literal colons in values as `\:`.
func splitTerse(line string, n int) []string {
	fields := make([]string, 0, n)
	var current strings.Builder
	escaped := false

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':' && len(fields) < n-1:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}
