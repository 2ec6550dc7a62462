package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sensdot/sensdot/internal/identity"
	"github.com/sensdot/sensdot/internal/logging"
	"go.uber.org/zap"
)

// DefaultPath is where the record lives unless the profile overrides it
const DefaultPath = "/var/lib/sensdot/device_config.json"

// ErrAbsent is returned by Load when no usable record exists: the file is
// missing, unreadable, or does not parse. Callers must treat all three the
// same way - enter configuration mode.
var ErrAbsent = errors.New("no usable configuration record")

// Store reads and writes the persisted DeviceConfig record.
// Construct one per process and pass it by reference; there is no global
// instance.
type Store struct {
	path string
	id   identity.Identity

	mu sync.Mutex
}

// NewStore creates a store for the record at path. The identity supplies
// defaults that derive from the hardware (topic prefix).
func NewStore(path string, id identity.Identity) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path, id: id}
}

// Path returns the location of the persisted record
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted record, fills defaults, and clamps out-of-range
// numerics. It returns ErrAbsent when the file is missing or does not
// parse; it never propagates a parse error. The returned record may still
// fail Valid (empty SSID or broker) - that is the caller's gate, not
// Load's.
func (s *Store) Load() (*DeviceConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("No configuration record on flash", zap.String("path", s.path))
			return nil, ErrAbsent
		}
		logging.Warn("Configuration record unreadable",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrAbsent, err)
	}

	var cfg DeviceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		// A corrupt record is indistinguishable from no record. The next
		// commit overwrites it.
		logging.Warn("Configuration record does not parse, treating as absent",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrAbsent, err)
	}

	for _, note := range Normalize(&cfg, s.id) {
		logging.Warn("Configuration field adjusted at load", zap.String("adjustment", note))
	}

	return &cfg, nil
}

// Commit validates a proposed record and writes it atomically. The record
// is normalized first, so out-of-range numerics from a form submission are
// clamped the same way Load clamps them. A record that is not
// valid-for-operation after normalization is rejected without touching the
// file. Write failures leave the prior record intact.
func (s *Store) Commit(cfg *DeviceConfig) error {
	if cfg == nil {
		return NewValidationError("cannot commit a nil configuration")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	proposed := cfg.Clone()
	for _, note := range Normalize(proposed, s.id) {
		logging.Debug("Proposed configuration adjusted", zap.String("adjustment", note))
	}

	if issues := ValidateConfig(proposed); len(issues) > 0 {
		warnings, criticalErrors := SeparateWarningsAndErrors(issues)
		for _, w := range warnings {
			logging.Warn("Configuration advisory", zap.String("warning", w.Error()))
		}
		if len(criticalErrors) > 0 {
			return fmt.Errorf("proposed configuration rejected: %s", FormatValidationErrors(criticalErrors))
		}
	}

	data, err := json.MarshalIndent(proposed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	data = append(data, '\n')

	if err := s.writeAtomic(data); err != nil {
		return err
	}

	logging.Info("Configuration committed",
		zap.String("path", s.path),
		zap.String("ssid", proposed.WiFi.SSID),
		zap.String("broker", proposed.MQTT.Broker),
		zap.Uint32("sleep_interval_s", proposed.SleepIntervalS),
	)
	return nil
}

// writeAtomic writes data next to the record and renames it into place.
// The new bytes are synced to stable storage before the rename, so a power
// loss at any point leaves either the old record or the complete new one.
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temporary record: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary record: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temporary record: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary record: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace configuration record: %w", err)
	}

	return nil
}

// Reset deletes the persisted record, forcing configuration mode on the
// next boot. Resetting an already-absent record is not an error.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete configuration record: %w", err)
	}

	logging.Info("Configuration record deleted", zap.String("path", s.path))
	return nil
}
