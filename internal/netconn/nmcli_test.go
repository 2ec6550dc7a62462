package netconn

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// scriptedRunner dispatches nmcli invocations to a script function and
// records every call for assertions
type scriptedRunner struct {
	script func(args []string) (string, error)
	calls  []string
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	return r.script(args)
}

func (r *scriptedRunner) callMatching(substr string) int {
	count := 0
	for _, call := range r.calls {
		if strings.Contains(call, substr) {
			count++
		}
	}
	return count
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func newTestConnector(script func(args []string) (string, error)) (*NMConnector, *scriptedRunner) {
	runner := &scriptedRunner{script: script}
	c := NewNMConnectorWithRunner("wlan0", runner)
	c.PollInterval = time.Millisecond
	return c, runner
}

func TestConnectStationSuccess(t *testing.T) {
	c, runner := newTestConnector(func(args []string) (string, error) {
		switch {
		case hasArg(args, "connect"):
			return "Device 'wlan0' successfully activated.", nil
		case hasArg(args, "show"):
			return "192.168.1.23/24\n", nil
		default:
			return "", nil
		}
	})

	addr, err := c.ConnectStation(context.Background(), "HomeNet", "hunter2", 2*time.Second)
	if err != nil {
		t.Fatalf("ConnectStation: %v", err)
	}
	if addr.String() != "192.168.1.23" {
		t.Errorf("addr = %s, want 192.168.1.23", addr)
	}

	if runner.callMatching("connect HomeNet") != 1 {
		t.Errorf("expected one connect invocation, calls: %v", runner.calls)
	}
	if runner.callMatching("password hunter2") != 1 {
		t.Errorf("password not passed to nmcli, calls: %v", runner.calls)
	}
}

func TestConnectStationOpenNetworkOmitsPassword(t *testing.T) {
	c, runner := newTestConnector(func(args []string) (string, error) {
		if hasArg(args, "show") {
			return "10.0.0.5/24\n", nil
		}
		return "", nil
	})

	if _, err := c.ConnectStation(context.Background(), "CafeWiFi", "", 2*time.Second); err != nil {
		t.Fatalf("ConnectStation: %v", err)
	}
	if runner.callMatching("password") != 0 {
		t.Errorf("password argument passed for an open network, calls: %v", runner.calls)
	}
}

func TestConnectStationTimeoutTearsDown(t *testing.T) {
	c, runner := newTestConnector(func(args []string) (string, error) {
		if hasArg(args, "connect") {
			return "", errors.New("nmcli: Error: Timeout expired (90 seconds)")
		}
		return "", nil
	})

	start := time.Now()
	_, err := c.ConnectStation(context.Background(), "FarAway", "pw", 2*time.Second)
	if !errors.Is(err, ErrAssociationTimeout) {
		t.Fatalf("error = %v, want ErrAssociationTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout took %v, want ~2s", elapsed)
	}

	// The partial association must be torn down before returning
	if runner.callMatching("disconnect wlan0") != 1 {
		t.Errorf("expected one teardown disconnect, calls: %v", runner.calls)
	}

	// A following attempt against a working script succeeds: no state
	// leaked across calls
	c.runner.(*scriptedRunner).script = func(args []string) (string, error) {
		if hasArg(args, "show") {
			return "192.168.1.23/24\n", nil
		}
		return "", nil
	}
	if _, err := c.ConnectStation(context.Background(), "HomeNet", "pw", 2*time.Second); err != nil {
		t.Fatalf("follow-up ConnectStation: %v", err)
	}
}

func TestConnectStationAuthFailure(t *testing.T) {
	c, _ := newTestConnector(func(args []string) (string, error) {
		if hasArg(args, "connect") {
			return "", errors.New("nmcli: Error: Connection activation failed: Secrets were required, but not provided")
		}
		return "", nil
	})

	_, err := c.ConnectStation(context.Background(), "HomeNet", "wrong", 2*time.Second)
	if !errors.Is(err, ErrAuthFailure) {
		t.Errorf("error = %v, want ErrAuthFailure", err)
	}
}

func TestConnectStationNoAddressBeforeDeadline(t *testing.T) {
	// Association succeeds but DHCP never completes
	c, runner := newTestConnector(func(args []string) (string, error) {
		return "", nil // IP query always returns nothing
	})

	_, err := c.ConnectStation(context.Background(), "HomeNet", "pw", 50*time.Millisecond)
	if !errors.Is(err, ErrAssociationTimeout) {
		t.Fatalf("error = %v, want ErrAssociationTimeout", err)
	}
	if runner.callMatching("disconnect") == 0 {
		t.Error("no teardown after address wait timed out")
	}
}

func TestDisconnectStationIdempotent(t *testing.T) {
	c, _ := newTestConnector(func(args []string) (string, error) {
		return "", errors.New("nmcli: Error: Device 'wlan0' is already disconnected")
	})

	if err := c.DisconnectStation(context.Background()); err != nil {
		t.Errorf("DisconnectStation on idle interface: %v", err)
	}
}

func TestStartAPIdempotentWhileActive(t *testing.T) {
	c, runner := newTestConnector(func(args []string) (string, error) {
		return "", nil
	})

	if err := c.StartAP(context.Background(), "SensDot-3F2A", "sensdot-setup"); err != nil {
		t.Fatalf("StartAP: %v", err)
	}
	if err := c.StartAP(context.Background(), "SensDot-3F2A", "sensdot-setup"); err != nil {
		t.Fatalf("second StartAP: %v", err)
	}
	if got := runner.callMatching("hotspot"); got != 1 {
		t.Errorf("hotspot command issued %d times, want 1", got)
	}
}

func TestStopAPWhenNotRunning(t *testing.T) {
	c, _ := newTestConnector(func(args []string) (string, error) {
		return "", errors.New("nmcli: Error: 'sensdot-ap' is not an active connection")
	})

	if err := c.StopAP(context.Background()); err != nil {
		t.Errorf("StopAP on stopped AP: %v", err)
	}
}

func TestScanParsesAndDeduplicates(t *testing.T) {
	c, _ := newTestConnector(func(args []string) (string, error) {
		return "HomeNet:82:WPA2\n" +
			"HomeNet:45:WPA2\n" + // weaker duplicate, dropped
			"Guest\\:Net:60:WPA2\n" + // escaped colon in SSID
			"OpenCafe:30:\n" +
			":20:WPA2\n", nil // hidden SSID, skipped
	})

	networks, err := c.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []Network{
		{SSID: "HomeNet", SignalPC: 82, Security: "WPA2"},
		{SSID: "Guest:Net", SignalPC: 60, Security: "WPA2"},
		{SSID: "OpenCafe", SignalPC: 30, Security: ""},
	}
	if len(networks) != len(want) {
		t.Fatalf("got %d networks %v, want %d", len(networks), networks, len(want))
	}
	for i, w := range want {
		if networks[i] != w {
			t.Errorf("networks[%d] = %+v, want %+v", i, networks[i], w)
		}
	}
}

func TestSplitTerse(t *testing.T) {
	tests := []struct {
		name string
		line string
		n    int
		want []string
	}{
		{"plain", "HomeNet:82:WPA2", 3, []string{"HomeNet", "82", "WPA2"}},
		{"escaped colon", `Guest\:Net:60:WPA2`, 3, []string{"Guest:Net", "60", "WPA2"}},
		{"empty trailing field", "OpenCafe:30:", 3, []string{"OpenCafe", "30", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTerse(tt.line, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
