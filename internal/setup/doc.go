// Package setup is the terminal provisioning wizard: a bench operator
// with serial or SSH access fills in WiFi and broker details without
// going through the AP portal. The committed record is the same one the
// portal writes.
package setup
