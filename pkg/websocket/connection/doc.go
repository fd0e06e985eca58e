// Package connection maintains a resilient client-side WebSocket connection:
// a state machine over a pluggable transport, read and keepalive loops,
// bounded-queue backpressure for consumers, and a bounded reconnect loop.
// Supervisors watch IsDead and rebuild a manager once it gives up.
package connection
