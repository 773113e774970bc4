// Package protocol owns the simulator<->controller wire contract.
//
// Ownership boundary:
// - handshake, control and observation message shapes
// - single-frame JSON text encoding and strict decoding
// - typed log dictionary embedded in observations
//
// Every message travels as one self-contained text frame. Decoding is strict:
// a missing or mistyped field fails the whole message with ErrDecode.
package protocol
