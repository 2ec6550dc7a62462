// Package broker manages the node's MQTT session: connect, publish,
// subscribe, and a caller-driven message drain.
//
// Connect failures are classified into two kinds the orchestrator
// treats differently. Unreachable covers socket, DNS, and timeout
// failures and is retried with backoff; Rejected covers broker-level
// refusals (bad credentials, identifier rejected) and is never retried
// within a cycle, because hammering a broker that is actively refusing
// credentials helps nobody.
//
// The session never reconnects on its own and inbound message callbacks
// run synchronously on the caller's goroutine, preserving the firmware's
// single-threaded semantics.
package broker
