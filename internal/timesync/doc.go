// Package timesync corrects the node's notion of wall-clock time after
// the station link comes up. The board has no battery-backed RTC worth
// trusting, so timestamps in the data payload come from an NTP offset
// applied in-process rather than from a stepped system clock.
package timesync
