package telemetry

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DataPayload is the sensor report published to <prefix>/data once per
// wake cycle.
type DataPayload struct {
	DeviceID  string             `json:"device_id"`
	Timestamp int64              `json:"timestamp"` // unix seconds
	Data      map[string]float64 `json:"data"`
}

// NewDataPayload builds a data payload from a reading set. Readings are
// copied, so the caller may reuse its map.
func NewDataPayload(deviceID string, ts time.Time, readings map[string]float64) DataPayload {
	data := make(map[string]float64, len(readings))
	for k, v := range readings {
		data[k] = v
	}
	return DataPayload{
		DeviceID:  deviceID,
		Timestamp: ts.Unix(),
		Data:      data,
	}
}

// Marshal encodes the payload for publishing
func (p DataPayload) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data payload: %w", err)
	}
	return data, nil
}

// Keys returns the reading names in sorted order, for stable logging
func (p DataPayload) Keys() []string {
	keys := make([]string, 0, len(p.Data))
	for k := range p.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StatusPayload is the retained lifecycle report published to
// <prefix>/status. The broker keeps the last one, so a dashboard can see
// the node's most recent state even while it sleeps.
type StatusPayload struct {
	DeviceID  string `json:"device_id"`
	State     string `json:"state"` // "online", "offline", "rejected"
	Timestamp int64  `json:"timestamp"`
	SessionID string `json:"session_id,omitempty"` // per-boot uuid
	Version   string `json:"version,omitempty"`
	WiFiIP    string `json:"wifi_ip,omitempty"`
	UptimeS   int64  `json:"uptime_s,omitempty"`
	FreeMemB  int64  `json:"free_memory_b,omitempty"`
	NextWakeS int64  `json:"next_wake_s,omitempty"`
	Detail    string `json:"detail,omitempty"` // human-readable context for error states
}

// Status states
const (
	StateOnline   = "online"
	StateOffline  = "offline"
	StateRejected = "rejected"
)

// Marshal encodes the payload for publishing
func (p StatusPayload) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status payload: %w", err)
	}
	return data, nil
}

// OfflineWill returns the last-will payload registered at connect time.
// The broker publishes it if the session drops without a clean disconnect.
func OfflineWill(deviceID string) []byte {
	data, _ := json.Marshal(StatusPayload{
		DeviceID: deviceID,
		State:    StateOffline,
	})
	return data
}
