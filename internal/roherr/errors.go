// Package roherr defines the sentinel error kinds the codec can raise.
// Every error wraps one of these with fmt.Errorf("...: %w") so callers
// can classify failures with errors.Is while still seeing a specific
// message.
package roherr

import "errors"

var (
	// ErrMalformedPacket: packet too short, unknown discriminator, or an
	// SDVL value that doesn't parse. Drop the packet; state unchanged.
	ErrMalformedPacket = errors.New("rohc: malformed packet")

	// ErrCrcMismatch: the packet parsed but its CRC didn't validate.
	ErrCrcMismatch = errors.New("rohc: crc mismatch")

	// ErrNoContext: a non-IR packet arrived for a context still in
	// No-Context state. Dropped silently; there is no SN to reference
	// for feedback.
	ErrNoContext = errors.New("rohc: no context")

	// ErrProfileMismatch: the packet's next-header protocol doesn't
	// match the profile bound to its context. Recoverable; the caller
	// may retry against a different profile.
	ErrProfileMismatch = errors.New("rohc: profile mismatch")

	// ErrFragmented: an IPv4 packet with MF=1 or a nonzero fragment
	// offset. Rejected by every profile; out of scope.
	ErrFragmented = errors.New("rohc: fragmented packet rejected")

	// ErrSdvlOverflow: a value >= 2^29 cannot be SDVL-encoded. Fatal to
	// the packet, not to the context.
	ErrSdvlOverflow = errors.New("rohc: sdvl overflow")
)
