package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the canonical profile location on the node
const DefaultPath = "/etc/sensdot/profile.yaml"

// Load reads the profile at path. A missing file yields the default
// profile; a file that exists but does not parse is an error, because a
// half-read hardware profile would drive the wrong pins.
func Load(path string) (*Profile, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProfile(), nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if p.Version != currentProfileVersion {
		return nil, fmt.Errorf("unsupported profile version: %d (expected %d)", p.Version, currentProfileVersion)
	}

	p.fillDefaults()
	return &p, nil
}

// Save writes the profile to path atomically (write-new-then-rename),
// creating the directory if needed. Used by installers and tests; the
// agent itself only reads profiles.
func (p *Profile) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	header := []byte(`# SensDot hardware profile
# Describes the board this agent runs on: GPIO lines, radio interface,
# sensor bus, and file locations. The device configuration itself lives
# in the JSON record, not here.

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary profile: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
