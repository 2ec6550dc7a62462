// Package profile loads the hardware profile for the node.
//
// The profile is operator-managed YAML describing the board this agent runs
// on: which GPIO chip and lines carry the reset button and status LED, which
// network interface is the radio, which I2C bus has sensors attached, and
// where on the filesystem the device record and logs live. It is distinct
// from the device configuration record (package configstore): the profile
// describes the hardware and rarely changes; the record holds what the
// operator configures through the portal and changes in the field.
//
// A missing profile file is not an error - every field has a default
// matching the reference board, so a bare installation boots with no
// profile present. A profile that exists but does not parse is an error:
// it is operator-managed, and silently ignoring a typo would strand the
// node on wrong pins.
//
// Location: /etc/sensdot/profile.yaml (override with --profile).
package profile
