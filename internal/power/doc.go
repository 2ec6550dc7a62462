// Package power puts the node into its low-power state between wake
// cycles. On the reference board that is suspend-to-RAM with an RTC
// alarm via rtcwake; boards whose RTC cannot wake the SoC fall back to
// an in-process timer sleep, which draws more power but keeps the duty
// cycle identical. In-process sleeps can additionally watch a PIR line
// and end early on motion.
package power
