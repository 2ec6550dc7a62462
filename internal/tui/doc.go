// Package tui holds the shared terminal presentation pieces for the
// sensdotd CLI: the color palette, result boxes, and the typed
// confirmation prompt used before destructive operations.
package tui
