// Package indication drives the status LED. Each cycle event maps to a
// short blink pattern an operator can read without a console: a steady
// slow blink while the configuration portal is up, one flash for a
// successful publish, two for a failed cycle, three for a factory
// reset.
package indication
