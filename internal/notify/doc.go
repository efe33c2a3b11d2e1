// Package notify implements the cross-process notification subsystem: a
// passive channel owned by the running instance, and a best-effort sender
// used by rival instances to hand off work before exiting.
//
// The transport is a Unix domain socket whose path doubles as the channel
// address published in the handle registry. Messages are single JSON lines
// carrying a numeric kind and a bounded text payload. Kind identifiers are
// drawn from a sparse space so unrelated traffic accidentally hitting the
// socket is unlikely to decode into a valid kind.
//
// Delivery is fire-and-forget. The sender waits up to a fixed bound for the
// target to accept a connection (its readiness signal) and swallows every
// failure after that; the caller never learns whether delivery succeeded.
package notify
