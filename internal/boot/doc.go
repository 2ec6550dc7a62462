// Package boot holds the top-level state machine that runs once per
// wake: choose a mode from the reset gesture and the persisted
// configuration, drive that mode to completion, and end in a scheduled
// sleep or a reboot.
//
// Every failure below the orchestrator is caught and classified at the
// boundary of its step. RunCycle never returns an error; each path
// terminates in an Outcome, so the device always re-attempts instead of
// halting.
package boot
