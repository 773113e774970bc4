// Package transport owns the single-peer request/reply channel between the
// simulator and its controller.
//
// Ownership boundary:
// - socket binding for the zmq (REP) and tcp (framed) kinds
// - strict request/reply alternation
// - bounded receive timeouts and idempotent close
//
// A receive timeout is fatal: the channel closes itself and reports ErrTimeout.
// Nothing in this package retries a receive.
package transport
