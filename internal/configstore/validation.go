package configstore

import (
	"fmt"
	"strings"
)

// ValidationError is a single problem found in a proposed configuration
type ValidationError struct {
	Message string
}

// NewValidationError creates a validation error
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateSSID validates a WiFi SSID.
// SSIDs must be non-empty and <= 32 characters (WiFi spec limit).
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return NewValidationError("wifi.ssid cannot be empty")
	}
	if len(ssid) > MaxSSIDLength {
		return NewValidationError(fmt.Sprintf("wifi.ssid too long (max %d chars): %d chars", MaxSSIDLength, len(ssid)))
	}
	return nil
}

// ValidateBrokerHost validates an MQTT broker hostname or IP address.
// Basic validation: non-empty, reasonable length, no whitespace.
func ValidateBrokerHost(host string) error {
	if host == "" {
		return NewValidationError("mqtt.broker cannot be empty")
	}
	if len(host) > MaxBrokerHostLength {
		return NewValidationError(fmt.Sprintf("mqtt.broker too long (max %d chars): %d chars", MaxBrokerHostLength, len(host)))
	}
	if strings.ContainsAny(host, " \t\n\r") {
		return NewValidationError("mqtt.broker contains whitespace characters")
	}
	return nil
}

// ValidateTopicPrefix validates the MQTT topic prefix.
// Prefixes must not contain MQTT wildcards or a trailing slash, and must
// stay within a sane length for constrained brokers.
func ValidateTopicPrefix(prefix string) error {
	if prefix == "" {
		return nil // empty takes the identity-derived default at load
	}
	if len(prefix) > MaxTopicPrefixLen {
		return NewValidationError(fmt.Sprintf("mqtt.topic_prefix too long (max %d chars): %d chars", MaxTopicPrefixLen, len(prefix)))
	}
	if strings.ContainsAny(prefix, "+#") {
		return NewValidationError("mqtt.topic_prefix must not contain MQTT wildcards (+ or #)")
	}
	if strings.HasSuffix(prefix, "/") {
		return NewValidationError("mqtt.topic_prefix must not end with a slash")
	}
	return nil
}

// ValidateSleepInterval validates the deep-sleep interval in seconds.
// Out-of-range values are legal in a persisted record (they are clamped at
// load) but rejected here so the portal and CLI surface mistakes early.
func ValidateSleepInterval(seconds uint32) error {
	if seconds < MinSleepIntervalS || seconds > MaxSleepIntervalS {
		return NewValidationError(fmt.Sprintf("sleep_interval_s must be %d-%d, got %d", MinSleepIntervalS, MaxSleepIntervalS, seconds))
	}
	return nil
}

// ValidateSensorInterval validates the sensor cadence in seconds
func ValidateSensorInterval(seconds uint32) error {
	if seconds < MinSensorIntervalS || seconds > MaxSensorIntervalS {
		return NewValidationError(fmt.Sprintf("sensor_interval_s must be %d-%d, got %d", MinSensorIntervalS, MaxSensorIntervalS, seconds))
	}
	return nil
}

// Valid reports whether a record can drive an operational cycle:
// non-empty SSID, non-empty broker host, and all numerics within their
// declared ranges. This is the gate the boot orchestrator consults.
func Valid(cfg *DeviceConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.WiFi.SSID == "" || cfg.MQTT.Broker == "" {
		return false
	}
	if cfg.MQTT.Port == 0 {
		return false
	}
	if cfg.SleepIntervalS < MinSleepIntervalS || cfg.SleepIntervalS > MaxSleepIntervalS {
		return false
	}
	if cfg.SensorIntervalS < MinSensorIntervalS || cfg.SensorIntervalS > MaxSensorIntervalS {
		return false
	}
	return true
}

// ValidateConfig validates a complete proposed configuration.
// This is the main validation entry point for portal and CLI input.
// Returns a slice of validation errors (empty if valid); entries whose
// message starts with "warning:" are advisory only.
func ValidateConfig(cfg *DeviceConfig) []error {
	var allErrors []error

	if err := ValidateSSID(cfg.WiFi.SSID); err != nil {
		allErrors = append(allErrors, err)
	}
	if err := ValidateBrokerHost(cfg.MQTT.Broker); err != nil {
		allErrors = append(allErrors, err)
	}
	if err := ValidateTopicPrefix(cfg.MQTT.TopicPrefix); err != nil {
		allErrors = append(allErrors, err)
	}
	if err := ValidateSleepInterval(cfg.SleepIntervalS); err != nil {
		allErrors = append(allErrors, err)
	}
	if err := ValidateSensorInterval(cfg.SensorIntervalS); err != nil {
		allErrors = append(allErrors, err)
	}

	allErrors = append(allErrors, checkAdvisories(cfg)...)

	return allErrors
}

// checkAdvisories flags configurations that are valid but probably not what
// the operator intended.
func checkAdvisories(cfg *DeviceConfig) []error {
	var warnings []error

	if cfg.WiFi.SSID != "" && cfg.WiFi.Password == "" {
		warnings = append(warnings, NewValidationError(
			"warning: wifi.password is empty (open network assumed)",
		))
	}

	if cfg.SensorIntervalS > cfg.SleepIntervalS && cfg.SleepIntervalS != 0 {
		warnings = append(warnings, NewValidationError(
			fmt.Sprintf("warning: sensor_interval_s (%d) exceeds sleep_interval_s (%d) - sensors are read once per wake anyway",
				cfg.SensorIntervalS, cfg.SleepIntervalS),
		))
	}

	if cfg.MQTT.Username != "" && cfg.MQTT.Password == "" {
		warnings = append(warnings, NewValidationError(
			"warning: mqtt.username set without mqtt.password",
		))
	}

	return warnings
}

// FormatValidationErrors formats a slice of validation errors into a
// user-friendly message.
func FormatValidationErrors(errors []error) string {
	if len(errors) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d issue(s):\n", len(errors)))

	for i, err := range errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return sb.String()
}

// IsWarning checks if a validation error is a warning (non-fatal).
// Warnings have error messages starting with "warning:".
func IsWarning(err error) bool {
	if vErr, ok := err.(*ValidationError); ok {
		return strings.HasPrefix(vErr.Message, "warning:")
	}
	return strings.Contains(err.Error(), "warning:")
}

// SeparateWarningsAndErrors separates validation results into warnings and
// errors. Warnings are advisory; errors block a commit.
func SeparateWarningsAndErrors(errors []error) (warnings []error, criticalErrors []error) {
	for _, err := range errors {
		if IsWarning(err) {
			warnings = append(warnings, err)
		} else {
			criticalErrors = append(criticalErrors, err)
		}
	}
	return warnings, criticalErrors
}
