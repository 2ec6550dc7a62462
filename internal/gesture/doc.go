// Package gesture detects the timed reset-button hold that requests
// configuration mode.
//
// The detector samples a digital input at a fixed interval. Holding the
// button continuously for the threshold duration (default 3s) signals
// "configuration requested"; continuing to hold it to the factory-reset
// threshold (default 20s) signals a full configuration wipe. A contact
// bounce re-arms the hold timer rather than aborting the check, and an
// unpressed button is reported immediately so a normal boot is not
// delayed.
package gesture
