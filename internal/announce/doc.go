// Package announce advertises the configuration portal over mDNS while
// the node is in configuration mode, so a phone on the setup network can
// reach it by name instead of guessing the gateway IP.
package announce
