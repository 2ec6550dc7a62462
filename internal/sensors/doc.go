// Package sensors collects the node's readings once per wake cycle.
// Each sensor contributes a flat set of named float readings; a failing
// sensor is logged and omitted so one flaky part never blocks the
// publish.
package sensors
