// Package configstore owns the persisted device configuration record.
//
// This package is the single reader and writer of the on-flash JSON record
// that decides how the node boots. Every other component receives a loaded
// DeviceConfig by value or proposes a replacement record through Commit;
// nothing else touches the file.
//
// # Record Lifecycle
//
// The record moves through three operations:
//   - Load: read and normalize the record; a missing or unparseable file is
//     reported as ErrAbsent, never as a panic or a parse error
//   - Commit: validate a proposed record and write it atomically
//     (write-new-then-rename), so a crash mid-write leaves the prior record
//     intact and readable
//   - Reset: delete the record, forcing configuration mode on next boot
//
// # Usage Example
//
//	store := configstore.NewStore("/var/lib/sensdot/device_config.json", id)
//
//	cfg, err := store.Load()
//	if errors.Is(err, configstore.ErrAbsent) {
//	    // first boot or wiped flash - enter configuration mode
//	}
//
//	if !configstore.Valid(cfg) {
//	    // record exists but cannot drive an operational cycle
//	}
//
// # Normalization
//
// Load never rejects a parseable record for bad numeric values. Missing
// fields take their documented defaults and out-of-range numerics are
// clamped into range, with each adjustment logged. Only two conditions keep
// a record from operating the node: an empty WiFi SSID or an empty broker
// host. Unknown JSON fields are ignored for forward compatibility.
//
// # Thread Safety
//
// Store serializes file operations with an internal mutex. Concurrent
// commits from the configuration portal cannot interleave writes.
package configstore
