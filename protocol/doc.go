// Package protocol implements the client side of the node's websocket protocol.
//
// A Channel owns one connection at a time and redials forever with exponential
// backoff. Outbound requests are fire-and-forget: they are written only while the
// channel is Open and silently skipped otherwise. Inbound frames have the shape
// {"type": ..., "body": ...} and are dispatched one at a time, in arrival order,
// to the handler registered for their type. Frames that do not parse, and frames
// with no registered handler, are dropped.
package protocol
