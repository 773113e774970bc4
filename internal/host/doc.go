// Package host is the headless stand-in for the engine side of a session.
//
// It owns the fixed-step simulation clock and the reference collaborators
// (reach task, synthetic renderer, tone capture) and drives a bridge.Bridge
// once per tick: Tick first, PublishFrom after the frame is produced.
package host
