// Package gpio owns the board's character-device GPIO lines: the reset
// button, the status LED, and the optional PIR motion sensor. Boards
// without GPIO (development VMs) skip the package entirely via the
// profile's enabled flag.
package gpio
