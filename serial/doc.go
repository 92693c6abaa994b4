// Package serial provides the byte-level transport shared by every instrument
// driver in calrig.
//
// Each physical device hangs off its own serial line, but all of them follow
// the same conversational shape: write one command, then block until the
// response is complete. Completion is detected either by a terminator
// sequence, by a byte count, or by line silence (the read timeout elapsing),
// depending on what the device's protocol offers. ReadBound captures that
// choice; Commander captures the round trip.
//
// Access to one physical port is serialized behind a per-port mutex so a
// background poller and the control loop can never interleave writes on the
// same line, which would corrupt framing.
package serial
