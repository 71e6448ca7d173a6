package profile

import (
	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// UDP implements profile 0x0002 (UDP) and, via Lite, profile 0x0008
// (UDP-Lite). The two share every static/dynamic chain byte; the open
// question of whether UDP-Lite deserves its own profile ID or a flag on
// the UDP profile is resolved in favor of the flag (see DESIGN.md).
type UDP struct {
	Lite bool
}

func (p UDP) ID() uint16 {
	if p.Lite {
		return IDUDPLite
	}
	return IDUDP
}

func (p UDP) Name() string {
	if p.Lite {
		return "UDP-Lite"
	}
	return "UDP"
}

func (p UDP) CheckBelongs(ctx *rctx.Context, h Headers) bool {
	if ctx.Outer == nil || h.Outer == nil || h.UDP == nil || !ctx.HasUDP {
		return false
	}
	return ctx.Outer.Version == h.Outer.Version &&
		ctx.Outer.Protocol == h.Outer.Protocol &&
		ctx.Outer.Src.Equal(h.Outer.Src) &&
		ctx.Outer.Dst.Equal(h.Outer.Dst) &&
		ctx.UDP.Source == h.UDP.Source &&
		ctx.UDP.Dest == h.UDP.Dest
}

func (p UDP) StaticChain(h Headers) []byte {
	out := make([]byte, 0, 14)
	out = append(out, h.Outer.StaticChain()...)
	out = append(out, h.UDP.StaticChain()...)
	return out
}

func (p UDP) DynamicChain(ctx *rctx.Context, h Headers) []byte {
	out := make([]byte, 0, 8)
	out = append(out, h.Outer.DynamicChain(ctx.Outer.RND, ctx.Outer.NBO)...)
	out = append(out, h.UDP.DynamicChain()...)
	return out
}

func (p UDP) StaticLen([]byte) (int, error) {
	return 14, nil
}

func (p UDP) DynamicLen([]byte) (int, error) {
	return 8, nil
}

func (p UDP) ParseStatic(data []byte) (Headers, int, error) {
	outer, n, err := packet.ParseIPv4StaticChain(data)
	if err != nil {
		return Headers{}, 0, err
	}
	source, dest, m, err := packet.ParseUDPStaticChain(data[n:])
	if err != nil {
		return Headers{}, 0, err
	}
	return Headers{Outer: outer, UDP: &packet.UDPHeader{Source: source, Dest: dest}}, n + m, nil
}

func (p UDP) ApplyDynamic(ctx *rctx.Context, h *Headers, data []byte) (int, error) {
	tos, ttl, id, df, rnd, nbo, n, err := packet.ParseIPv4DynamicChain(data)
	if err != nil {
		return 0, err
	}
	h.Outer.TOS, h.Outer.TTL, h.Outer.ID, h.Outer.DF = tos, ttl, id, df
	ctx.Outer.TOS, ctx.Outer.TTL, ctx.Outer.DF = tos, ttl, df
	ctx.Outer.IPID, ctx.Outer.RND, ctx.Outer.NBO = id, rnd, nbo

	checksum, m, err := packet.ParseUDPDynamicChain(data[n:])
	if err != nil {
		return 0, err
	}
	h.UDP.Checksum = checksum
	ctx.UDP.Check = checksum
	return n + m, nil
}

func (p UDP) NewContext(cid uint16, mode rctx.Mode, cfg rctx.Config, h Headers) *rctx.Context {
	ctx := rctx.NewContext(cid, p.ID(), mode, cfg, false, true)
	ctx.Outer.Version = h.Outer.Version
	ctx.Outer.Protocol = h.Outer.Protocol
	ctx.Outer.Src = h.Outer.Src
	ctx.Outer.Dst = h.Outer.Dst
	ctx.Outer.TOS = h.Outer.TOS
	ctx.Outer.TTL = h.Outer.TTL
	ctx.Outer.DF = h.Outer.DF
	ctx.Outer.IPID = h.Outer.ID
	ctx.UDP.Source = h.UDP.Source
	ctx.UDP.Dest = h.UDP.Dest
	ctx.UDP.Check = h.UDP.Checksum
	ctx.UDP.Lite = p.Lite
	return ctx
}

var _ Profile = UDP{}
