// Package rohc is the public entry point for the module: constructing
// compressors and decompressors, and Conn, a net.Conn wrapper that
// compresses outgoing IP/UDP datagrams and decompresses incoming ones
// transparently. It is a thin, application-facing facade over the
// lower pkg/* layers that do the real work.
package rohc

import (
	"github.com/runZeroInc/rohc/pkg/compressor"
	"github.com/runZeroInc/rohc/pkg/decompressor"
	"github.com/runZeroInc/rohc/pkg/profile"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// Mode is the ROHC operating mode: U-Mode, O-Mode, or R-Mode.
type Mode = rctx.Mode

const (
	UMode = rctx.UMode
	OMode = rctx.OMode
	RMode = rctx.RMode
)

// Config holds the compressor/decompressor lifecycle tunables (window
// width, IR/FO dwell counts, IP-ID jitter tolerance).
type Config = rctx.Config

// DefaultConfig returns the tunables this package uses unless the
// caller overrides them.
func DefaultConfig() Config {
	return rctx.DefaultConfig()
}

// Compressor turns uncompressed IP/UDP headers into ROHC packets,
// maintaining one context per CID.
type Compressor = compressor.Compressor

// Decompressor turns ROHC packets back into IP/UDP headers and
// payload, maintaining one context per CID.
type Decompressor = decompressor.Decompressor

// Result is a single decompressed packet: reconstructed outer IP
// header, optional UDP header, and payload.
type Result = decompressor.Result

// NewCompressor returns a Compressor supporting every profile this
// module implements (IP-only, UDP, UDP-Lite).
func NewCompressor(cfg Config, mode Mode, largeCID bool) *Compressor {
	return compressor.New(cfg, mode, largeCID, profile.NewRegistry())
}

// NewDecompressor returns a Decompressor supporting every profile this
// module implements.
func NewDecompressor(cfg Config, mode Mode, largeCID bool) *Decompressor {
	return decompressor.New(cfg, mode, largeCID, profile.NewRegistry())
}
