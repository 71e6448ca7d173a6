// Package compressor implements the ROHC compressor side: context
// lifecycle, the generic header-diff engine, the IR/FO/SO state
// machine, packet-type selection, and feedback processing. It builds
// on pkg/packet for wire encoding and pkg/rctx for the per-context
// state, keeping wire-format concerns separate from per-context
// aggregation.
package compressor

import (
	"fmt"
	"sync"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/crc"
	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/profile"
	"github.com/runZeroInc/rohc/pkg/rctx"
	"github.com/sirupsen/logrus"
)

// Compressor owns every context for one ROHC channel and turns
// uncompressed headers into ROHC packets.
type Compressor struct {
	mu       sync.Mutex
	cfg      rctx.Config
	mode     rctx.Mode
	largeCID bool
	profiles profile.Registry
	contexts map[uint16]*rctx.Context
	log      *logrus.Entry
}

// New returns a Compressor in the given operating mode, with every
// profile in profiles available for new contexts.
func New(cfg rctx.Config, mode rctx.Mode, largeCID bool, profiles profile.Registry) *Compressor {
	return &Compressor{
		cfg:      cfg,
		mode:     mode,
		largeCID: largeCID,
		profiles: profiles,
		contexts: make(map[uint16]*rctx.Context),
		log:      logrus.WithField("component", "rohc.compressor"),
	}
}

// Compress compresses one packet's headers and payload for CID cid,
// creating or reusing a context as needed. udpLite selects UDP-Lite
// over UDP when the headers carry a UDP transport and no context
// exists yet for this CID.
func (c *Compressor) Compress(cid uint16, h profile.Headers, payload []byte, udpLite bool, nowUnixNano int64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, p, err := c.contextFor(cid, h, udpLite)
	if err != nil {
		return nil, err
	}
	ctx.Touch(nowUnixNano)

	// diffOuter/diffUDP compare h against the values already recorded on
	// ctx (from the previous packet) before overwriting them, so
	// staticChanged/dynChanged reflect this packet's effect on the
	// context the decompressor is about to see.
	diff := diffOuter(ctx, h, c.cfg)
	staticChanged := diff.staticChanged
	dynChanged := diff.dynamicChanged
	if ctx.HasUDP {
		udpStatic, udpDyn := diffUDP(ctx, h)
		staticChanged = staticChanged || udpStatic
		dynChanged = dynChanged || udpDyn
	}

	ctx.SN++

	// kind is chosen with ctx.CompState still at the value the *previous*
	// packet left it in, and the W-LSB windows still holding only
	// previously-sent reference values -- exactly the state the
	// decompressor will decode this packet against.
	kind := choosePacketType(ctx, dynChanged)
	if staticChanged {
		kind = packetKindIR
	}
	c.log.WithFields(logrus.Fields{"cid": cid, "state": ctx.CompState, "packet": kind}).Trace("compressing")

	var out []byte
	switch kind {
	case packetKindIR:
		out, err = c.encodeIR(ctx, p, h, payload, true)
	case packetKindIRDYN:
		out, err = c.encodeIRDYN(ctx, p, h, payload)
	case packetKindUO0:
		out, err = c.encodeUO0(ctx, payload)
	case packetKindUO1:
		out, err = c.encodeUO1(ctx, payload)
	default:
		out, err = c.encodeUO2(ctx, payload)
	}
	// encodeUO0 frames its own CID; UO-1/UO-2 get the same Add-CID or
	// large-CID framing around their first octet here.
	if err == nil && (kind == packetKindUO1 || kind == packetKindUO2) {
		var hdr []byte
		hdr, err = packet.BuildHeader(ctx.CID, out[0], c.largeCID)
		if err == nil {
			out = append(hdr, out[1:]...)
		}
	}
	if err != nil {
		return nil, err
	}

	ctx.SNWindow.Add(uint32(ctx.SN), uint32(ctx.SN))
	ctx.Outer.IPIDWindow.Add(uint32(ctx.SN), uint32(ctx.Outer.IPID))
	advanceState(ctx, c.cfg, staticChanged, dynChanged)

	return out, nil
}

// Context returns the live context for cid, or nil if none exists yet.
// Exposed for feedback processing and metrics, mirroring
// Decompressor.Context.
func (c *Compressor) Context(cid uint16) *rctx.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contexts[cid]
}

// contextFor looks up cid, verifying the stored context still matches
// h's static fields, or creates a fresh one via profile selection.
func (c *Compressor) contextFor(cid uint16, h profile.Headers, udpLite bool) (*rctx.Context, profile.Profile, error) {
	if ctx, ok := c.contexts[cid]; ok {
		p := c.profiles.Lookup(ctx.ProfileID)
		if p != nil && p.CheckBelongs(ctx, h) {
			return ctx, p, nil
		}
	}
	p := c.profiles.SelectForHeaders(h, udpLite)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: no profile claims these headers", roherr.ErrProfileMismatch)
	}
	ctx := p.NewContext(cid, c.mode, c.cfg, h)
	c.contexts[cid] = ctx
	return ctx, p, nil
}

// ApplyFeedback updates context state in response to received
// feedback, delegated to feedback.go.
func (c *Compressor) ApplyFeedback(cid uint16, fb Feedback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx, ok := c.contexts[cid]
	if !ok {
		return fmt.Errorf("%w: cid %d", roherr.ErrNoContext, cid)
	}
	applyFeedback(ctx, fb)
	return nil
}

func (c *Compressor) encodeIR(ctx *rctx.Context, p profile.Profile, h profile.Headers, payload []byte, hasDynamic bool) ([]byte, error) {
	static := p.StaticChain(h)
	var dynamic []byte
	if hasDynamic {
		dynamic = p.DynamicChain(ctx, h)
	}
	return packet.EncodeIR(ctx.CID, ctx.ProfileID, ctx.SN, c.largeCID, hasDynamic, static, dynamic, payload)
}

func (c *Compressor) encodeIRDYN(ctx *rctx.Context, p profile.Profile, h profile.Headers, payload []byte) ([]byte, error) {
	dynamic := p.DynamicChain(ctx, h)
	return packet.EncodeIRDYN(ctx.CID, ctx.ProfileID, ctx.SN, c.largeCID, dynamic, payload)
}

func (c *Compressor) encodeUO0(ctx *rctx.Context, payload []byte) ([]byte, error) {
	snBits := uint8(ctx.SN & 0x0F)
	crc3 := crcForSN(ctx, crc.Poly3)
	out, err := packet.EncodeUO0(ctx.CID, snBits, crc3, c.largeCID)
	if err != nil {
		return nil, err
	}
	return append(out, payload...), nil
}

func (c *Compressor) encodeUO1(ctx *rctx.Context, payload []byte) ([]byte, error) {
	ipidBits := uint8(ctx.Outer.IPID & 0x3F)
	snBits := uint8(ctx.SN & 0x1F)
	crc3 := crcForSN(ctx, crc.Poly3)
	out, err := packet.EncodeUO1(ipidBits, snBits, crc3)
	if err != nil {
		return nil, err
	}
	return append(out, payload...), nil
}

// encodeUO2 builds a UO-2 packet, picking the smallest extension (or
// none) that carries enough SN and IP-ID bits for the current W-LSB
// windows: EXT-0 and EXT-1 each add 3 SN bits on top of the 5 carried
// by the UO-2 base, differing only in IP-ID width (3 bits vs 8); EXT-3
// falls back to full-width SN and IP-ID plus RND/DF whenever either
// field needs more bits than EXT-1 can carry.
func (c *Compressor) encodeUO2(ctx *rctx.Context, payload []byte) ([]byte, error) {
	snBits := uint8(ctx.SN & 0x1F)
	crc7 := crcForSN(ctx, crc.Poly7)
	snK := ctx.SNWindow.GetK(uint32(ctx.SN))
	ipidK := ctx.Outer.IPIDWindow.GetK(uint32(ctx.Outer.IPID))

	var out []byte
	var err error
	switch {
	case snK <= 5 && ipidK == 0:
		out, err = packet.EncodeUO2(snBits, false, crc7, packet.ExtNone, nil)
	case snK <= 8 && ipidK <= 3:
		var ext0 []byte
		ext0, err = packet.EncodeExt0(packet.Ext0Fields{
			SN:   uint8(ctx.SN >> 5 & 0x07),
			IPID: uint8(ctx.Outer.IPID & 0x07),
		})
		if err == nil {
			out, err = packet.EncodeUO2(snBits, true, crc7, packet.Ext0, ext0)
		}
	case snK <= 8 && ipidK <= 8:
		var ext1 []byte
		ext1, err = packet.EncodeExt1(packet.Ext1Fields{
			SN:   uint8(ctx.SN >> 5 & 0x07),
			IPID: uint8(ctx.Outer.IPID & 0xFF),
		})
		if err == nil {
			out, err = packet.EncodeUO2(snBits, true, crc7, packet.Ext1, ext1)
		}
	default:
		var ext3 []byte
		ext3, err = packet.EncodeExt3(packet.Ext3Fields{
			SNPresent:   true,
			SN:          ctx.SN,
			IPIDPresent: true,
			IPID:        ctx.Outer.IPID,
			RND:         ctx.Outer.RND,
			DF:          ctx.Outer.DF,
		})
		if err == nil {
			out, err = packet.EncodeUO2(snBits, true, crc7, packet.Ext3, ext3)
		}
	}
	if err != nil {
		return nil, err
	}
	return append(out, payload...), nil
}

// crcForSN computes the small-packet CRC over the uncompressed fields
// that must survive decompression unambiguously: SN and the outer
// IP-ID. The CRC in UO-* packets protects exactly the fields a
// misordered LSB decode could get wrong.
func crcForSN(ctx *rctx.Context, p crc.Poly) uint8 {
	buf := make([]byte, 4)
	buf[0] = byte(ctx.SN >> 8)
	buf[1] = byte(ctx.SN)
	buf[2] = byte(ctx.Outer.IPID >> 8)
	buf[3] = byte(ctx.Outer.IPID)
	return crc.Compute(p, buf)
}
