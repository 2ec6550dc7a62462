// Package netconn drives the WiFi radio: joining a network in station
// mode, hosting the configuration access point, and scanning.
//
// The production backend shells out to NetworkManager's nmcli through a
// Runner seam, so tests substitute a scripted runner. Each ConnectStation
// call makes exactly one bounded attempt; retry policy belongs to the
// caller.
package netconn
