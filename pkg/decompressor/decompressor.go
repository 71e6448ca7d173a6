// Package decompressor implements the ROHC decompressor side: context
// lookup/creation from IR packets, the NC/SC/FC state machine, and
// verified decode of every packet format pkg/packet defines. It
// mirrors pkg/compressor's layering -- wire codec in
// pkg/packet, per-context state in pkg/rctx, profile-specific chain
// parsing in pkg/profile.
package decompressor

import (
	"fmt"
	"sync"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/profile"
	"github.com/runZeroInc/rohc/pkg/rctx"
	"github.com/sirupsen/logrus"
)

// Decompressor owns every context for one ROHC channel and turns ROHC
// packets back into uncompressed headers and payload.
type Decompressor struct {
	mu       sync.Mutex
	cfg      rctx.Config
	mode     rctx.Mode
	largeCID bool
	profiles profile.Registry
	contexts map[uint16]*rctx.Context
	k1, k2   uint
	log      *logrus.Entry
}

// New returns a Decompressor in the given operating mode, with every
// profile in profiles available for new contexts.
func New(cfg rctx.Config, mode rctx.Mode, largeCID bool, profiles profile.Registry) *Decompressor {
	return &Decompressor{
		cfg:      cfg,
		mode:     mode,
		largeCID: largeCID,
		profiles: profiles,
		contexts: make(map[uint16]*rctx.Context),
		k1:       DefaultK1,
		k2:       DefaultK2,
		log:      logrus.WithField("component", "rohc.decompressor"),
	}
}

// Decompress decodes one ROHC packet, creating or updating the context
// for its CID, and returns the reconstructed headers and payload.
func (d *Decompressor) Decompress(data []byte, nowUnixNano int64) (*Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cid, typeByte, body, err := packet.ParseHeader(data, d.largeCID)
	if err != nil {
		return nil, err
	}
	kind := packet.DetectType(typeByte)
	d.log.WithFields(logrus.Fields{"cid": cid, "packet": kind}).Trace("decompressing")

	// UO-0/1/2 carry SN and CRC bits in their first octet, so their
	// decoders take the packet starting at that octet.
	if kind == packet.TypeUO0 || kind == packet.TypeUO1 || kind == packet.TypeUO2 {
		body = append([]byte{typeByte}, body...)
	}

	switch kind {
	case packet.TypeIR:
		return d.decodeIR(cid, typeByte, body, nowUnixNano)
	case packet.TypeIRDYN:
		return d.decodeIRDYN(cid, body, nowUnixNano)
	case packet.TypeUO0:
		return d.decodeUO0Packet(cid, body, nowUnixNano)
	case packet.TypeUO1:
		return d.decodeUO1Packet(cid, body, nowUnixNano)
	case packet.TypeUO2:
		return d.decodeUO2Packet(cid, body, nowUnixNano)
	default:
		return nil, fmt.Errorf("%w: unsupported packet type %v", roherr.ErrMalformedPacket, kind)
	}
}

// Context returns the live context for cid, or nil if none exists yet.
// Exposed for feedback generation and metrics.
func (d *Decompressor) Context(cid uint16) *rctx.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contexts[cid]
}

func (d *Decompressor) contextOrFail(cid uint16) (*rctx.Context, profile.Profile, error) {
	ctx, ok := d.contexts[cid]
	if !ok {
		return nil, nil, fmt.Errorf("%w: cid %d", roherr.ErrNoContext, cid)
	}
	p := d.profiles.Lookup(ctx.ProfileID)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: cid %d profile %#x", roherr.ErrProfileMismatch, cid, ctx.ProfileID)
	}
	return ctx, p, nil
}
