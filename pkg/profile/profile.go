// Package profile implements the ROHC profile-specific logic: which
// packets a profile claims, and how it renders its static/dynamic
// chains. The generic header-diff engine and packet-type
// selection in pkg/compressor call into a Profile through this
// interface rather than switching on profile ID themselves -- one
// implementation per profile behind a common interface, dispatched on
// profile ID instead of GOOS.
package profile

import (
	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// IDs for the profiles this module implements.
const (
	IDUncompressed uint16 = 0x0000
	IDRTP          uint16 = 0x0001
	IDUDP          uint16 = 0x0002
	IDIPOnly       uint16 = 0x0004
	IDUDPLite      uint16 = 0x0008
)

// Headers bundles the parsed headers a profile needs to look at to
// build its chains or check context membership. Inner/UDP are nil when
// absent.
type Headers struct {
	Outer *packet.IPv4Header
	Inner *packet.IPv4Header
	UDP   *packet.UDPHeader
}

// Profile is the per-profile capability set a "compression profile"
// provides: context membership, static/dynamic chain codecs, and
// chain-length detection for IR/IR-DYN parsing.
type Profile interface {
	ID() uint16
	Name() string

	// CheckBelongs reports whether h matches the static fields already
	// recorded in ctx, i.e. whether packets with h can use ctx without a
	// new IR.
	CheckBelongs(ctx *rctx.Context, h Headers) bool

	// StaticChain renders the profile's static chain bytes for h.
	StaticChain(h Headers) []byte

	// DynamicChain renders the profile's dynamic chain bytes for h,
	// given the RND/NBO classification already recorded on ctx.
	DynamicChain(ctx *rctx.Context, h Headers) []byte

	// StaticLen returns the number of leading bytes of data occupied by
	// this profile's static chain, so IR parsing knows where it ends.
	StaticLen(data []byte) (int, error)

	// DynamicLen returns the number of leading bytes of data occupied
	// by this profile's dynamic chain, so IR/IR-DYN parsing knows where
	// it ends.
	DynamicLen(data []byte) (int, error)

	// ParseStatic is the decompressor's inverse of StaticChain: it
	// reconstructs the Headers an IR packet's static chain describes.
	ParseStatic(data []byte) (Headers, int, error)

	// ApplyDynamic is the decompressor's inverse of DynamicChain: it
	// parses data into h (filling in the dynamic-derived fields) and
	// updates ctx's recorded RND/NBO/TOS/TTL/DF/checksum state to match.
	ApplyDynamic(ctx *rctx.Context, h *Headers, data []byte) (int, error)

	// NewContext allocates a fresh Context configured for this profile
	// (HasInner/HasUDP wiring).
	NewContext(cid uint16, mode rctx.Mode, cfg rctx.Config, h Headers) *rctx.Context
}

// Registry is a profile-ID-keyed lookup, the dispatch table
// pkg/compressor and pkg/decompressor use instead of a switch.
type Registry map[uint16]Profile

// NewRegistry returns a Registry carrying every profile this module
// implements.
func NewRegistry() Registry {
	return Registry{
		IDIPOnly:  IPOnly{},
		IDUDP:     UDP{Lite: false},
		IDUDPLite: UDP{Lite: true},
	}
}

// Lookup returns the profile registered for id, or nil if none.
func (r Registry) Lookup(id uint16) Profile {
	return r[id]
}
