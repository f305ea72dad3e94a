// Package controller implements the transport-agnostic worker that owns
// the ESP3 byte buffer: it scans/decodes radio and response telegrams off
// a Transport, drives the adapter startup probe, correlates common-command
// responses, answers UTE teach-in requests, and drains an outbound queue
// back onto the wire.
package controller

import "io"

// Transport is anything the controller can read ESP3 bytes from and write
// ESP3 frames to: a serial port or a raw TCP socket both satisfy it, so the
// controller never branches on which one it was given.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}
