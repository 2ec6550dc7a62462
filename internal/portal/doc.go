// Package portal serves the configuration web UI while the node is in
// configuration mode. An operator on the setup network fills in WiFi and
// broker details; a successful save commits the record and ends the
// portal, after which the node reboots into operational mode.
//
// The POST /save body is the device configuration record itself, in the
// same JSON layout the store persists. /events is a WebSocket the page
// uses to learn the save went through before the access point drops.
package portal
