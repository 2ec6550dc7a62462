package topics

import (
	"fmt"
	"strings"
)

// Topic suffixes relative to the configured prefix
const (
	DataSuffix     = "data"
	StatusSuffix   = "status"
	CommandsSuffix = "commands"
)

// Data returns the sensor payload topic for a prefix
func Data(prefix string) string {
	return join(prefix, DataSuffix)
}

// Status returns the retained lifecycle topic for a prefix
func Status(prefix string) string {
	return join(prefix, StatusSuffix)
}

// Commands returns the inbound control topic for a prefix
func Commands(prefix string) string {
	return join(prefix, CommandsSuffix)
}

func join(prefix, suffix string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + suffix
}

// ValidatePrefix rejects prefixes that cannot be published to: empty
// strings, MQTT wildcards, and leading/trailing slashes.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("topic prefix is empty")
	}
	if strings.ContainsAny(prefix, "+#") {
		return fmt.Errorf("topic prefix %q contains MQTT wildcards", prefix)
	}
	if strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("topic prefix %q must not start or end with a slash", prefix)
	}
	return nil
}
