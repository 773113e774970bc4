// Package bridge owns the simulator's side of a controller session.
//
// Ownership boundary:
// - handshake negotiation and timing derivation
// - pacing gate between simulation time and the controller's next timestep
// - per-tick receive/reply orchestration and session teardown
//
// Lifecycle order:
// - Idle -> AwaitingHandshake -> Ready
//
// - Ready -> AwaitingControl -> RepliedThisTick, once per host tick
//
// - any state -> Closed on timeout, decode failure, quit, or Shutdown
//
// The host calls Tick once per frame and, when the tick was due, Publish
// exactly once after it has produced the frame. The bridge never spawns its
// own loop.
package bridge
