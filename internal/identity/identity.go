package identity

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"
)

const (
	// DeviceIDLength is the number of hex characters in a device id
	DeviceIDLength = 12

	// APSSIDPrefix is the access point SSID prefix; the last four hex
	// characters of the device id are appended in upper case
	APSSIDPrefix = "SensDot-"

	// ClientIDPrefix is prepended to the device id to form the MQTT client id
	ClientIDPrefix = "sensdot_"

	// TopicRoot is the root segment of the default MQTT topic prefix
	TopicRoot = "sensdot"
)

// machineIDPath is the canonical source of a stable hardware identifier
// on Linux systems. Overridable for tests.
var machineIDPath = "/etc/machine-id"

// Identity is the hardware-derived identity of this node.
// Derived once per boot and immutable for the process lifetime.
type Identity struct {
	// DeviceID is a 12-character lowercase hex string unique to the hardware
	DeviceID string
}

// Derive builds the node identity from the machine id, falling back to the
// first non-loopback MAC address when the machine id is unavailable.
func Derive() (Identity, error) {
	if id, err := fromMachineID(); err == nil {
		return id, nil
	}

	id, err := fromHardwareAddr()
	if err != nil {
		return Identity{}, fmt.Errorf("no hardware identity source available: %w", err)
	}
	return id, nil
}

// FromString builds an Identity from a raw identifier string.
// The value is lowercased and must contain at least DeviceIDLength hex
// characters; the trailing DeviceIDLength characters are used.
func FromString(raw string) (Identity, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if len(cleaned) < DeviceIDLength {
		return Identity{}, fmt.Errorf("identifier too short: need %d hex chars, got %d", DeviceIDLength, len(cleaned))
	}

	id := cleaned[len(cleaned)-DeviceIDLength:]
	if _, err := hex.DecodeString(id); err != nil {
		return Identity{}, fmt.Errorf("identifier is not hex: %w", err)
	}

	return Identity{DeviceID: id}, nil
}

func fromMachineID() (Identity, error) {
	data, err := os.ReadFile(machineIDPath)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read machine id: %w", err)
	}
	return FromString(string(data))
}

func fromHardwareAddr() (Identity, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return Identity{}, fmt.Errorf("failed to list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return FromString(hex.EncodeToString(iface.HardwareAddr))
	}

	return Identity{}, fmt.Errorf("no interface with a hardware address found")
}

// APSSID returns the SSID this node advertises in configuration mode,
// e.g. "SensDot-3F2A" for a device id ending in "3f2a".
func (i Identity) APSSID() string {
	return APSSIDPrefix + strings.ToUpper(i.DeviceID[len(i.DeviceID)-4:])
}

// ClientID returns the MQTT client identifier for this node
func (i Identity) ClientID() string {
	return ClientIDPrefix + i.DeviceID
}

// DefaultTopicPrefix returns the topic prefix used when the operator has
// not configured one, e.g. "sensdot/a1b2c3d4e5f6".
func (i Identity) DefaultTopicPrefix() string {
	return TopicRoot + "/" + i.DeviceID
}

// String implements fmt.Stringer
func (i Identity) String() string {
	return i.DeviceID
}
