package profile

import (
	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// IPOnly implements profile 0x0004: IP compression without any
// transport-layer awareness.
type IPOnly struct{}

func (IPOnly) ID() uint16 { return IDIPOnly }

func (IPOnly) Name() string { return "IP-only" }

func (IPOnly) CheckBelongs(ctx *rctx.Context, h Headers) bool {
	if ctx.Outer == nil || h.Outer == nil {
		return false
	}
	return ctx.Outer.Version == h.Outer.Version &&
		ctx.Outer.Protocol == h.Outer.Protocol &&
		ctx.Outer.Src.Equal(h.Outer.Src) &&
		ctx.Outer.Dst.Equal(h.Outer.Dst)
}

func (IPOnly) StaticChain(h Headers) []byte {
	return h.Outer.StaticChain()
}

func (IPOnly) DynamicChain(ctx *rctx.Context, h Headers) []byte {
	return h.Outer.DynamicChain(ctx.Outer.RND, ctx.Outer.NBO)
}

func (IPOnly) StaticLen([]byte) (int, error) {
	return 10, nil
}

func (IPOnly) DynamicLen([]byte) (int, error) {
	return 6, nil
}

func (IPOnly) ParseStatic(data []byte) (Headers, int, error) {
	outer, n, err := packet.ParseIPv4StaticChain(data)
	if err != nil {
		return Headers{}, 0, err
	}
	return Headers{Outer: outer}, n, nil
}

func (IPOnly) ApplyDynamic(ctx *rctx.Context, h *Headers, data []byte) (int, error) {
	tos, ttl, id, df, rnd, nbo, n, err := packet.ParseIPv4DynamicChain(data)
	if err != nil {
		return 0, err
	}
	h.Outer.TOS, h.Outer.TTL, h.Outer.ID, h.Outer.DF = tos, ttl, id, df
	ctx.Outer.TOS, ctx.Outer.TTL, ctx.Outer.DF = tos, ttl, df
	ctx.Outer.IPID, ctx.Outer.RND, ctx.Outer.NBO = id, rnd, nbo
	return n, nil
}

func (IPOnly) NewContext(cid uint16, mode rctx.Mode, cfg rctx.Config, h Headers) *rctx.Context {
	ctx := rctx.NewContext(cid, IDIPOnly, mode, cfg, false, false)
	ctx.Outer.Version = h.Outer.Version
	ctx.Outer.Protocol = h.Outer.Protocol
	ctx.Outer.Src = h.Outer.Src
	ctx.Outer.Dst = h.Outer.Dst
	ctx.Outer.TOS = h.Outer.TOS
	ctx.Outer.TTL = h.Outer.TTL
	ctx.Outer.DF = h.Outer.DF
	ctx.Outer.IPID = h.Outer.ID
	return ctx
}

var _ Profile = IPOnly{}
