package compressor

import (
	"github.com/runZeroInc/rohc/pkg/ipid"
	"github.com/runZeroInc/rohc/pkg/profile"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// fieldDiff is the generic header-diff engine's verdict for one
// incoming packet: whether any static field changed (forces IR),
// whether any dynamic field changed (forces at least FO/IR-DYN), and
// the classified IP-ID behavior to drive window offset selection.
type fieldDiff struct {
	staticChanged  bool
	dynamicChanged bool
	outerBehavior  ipid.Behavior
}

// diffOuter compares h against the outer IPHeaderInfo already recorded
// on ctx, bumping the "consecutive unchanged" counters field-by-field,
// and returns what changed.
func diffOuter(ctx *rctx.Context, h profile.Headers, cfg rctx.Config) fieldDiff {
	info := ctx.Outer
	outer := h.Outer

	tosChanged := info.TOS != outer.TOS
	ttlChanged := info.TTL != outer.TTL
	dfChanged := info.DF != outer.DF
	protoChanged := info.Protocol != outer.Protocol

	info.TOSCount = rctx.BumpOrReset(info.TOSCount, tosChanged)
	info.TTLCount = rctx.BumpOrReset(info.TTLCount, ttlChanged)
	info.DFCount = rctx.BumpOrReset(info.DFCount, dfChanged)
	info.ProtocolCount = rctx.BumpOrReset(info.ProtocolCount, protoChanged)

	maxDelta := cfg.IPIDMaxDelta
	if maxDelta == 0 {
		maxDelta = ipid.DefaultMaxDelta
	}
	classifier := &ipid.Classifier{MaxDelta: maxDelta}
	behavior, _ := classifier.Classify(info.IPID, outer.ID)
	rnd, nbo := ipid.RNDNBO(behavior)

	rndChanged := info.RND != rnd
	nboChanged := info.NBO != nbo
	info.RNDCount = rctx.BumpOrReset(info.RNDCount, rndChanged)
	info.NBOCount = rctx.BumpOrReset(info.NBOCount, nboChanged)

	info.TOS = outer.TOS
	info.TTL = outer.TTL
	info.DF = outer.DF
	info.Protocol = outer.Protocol
	info.RND = rnd
	info.NBO = nbo
	info.IPID = outer.ID
	info.Version = outer.Version

	staticChanged := protoChanged || info.Version != outer.Version
	dynamicChanged := tosChanged || ttlChanged || dfChanged || rndChanged || nboChanged

	return fieldDiff{
		staticChanged:  staticChanged,
		dynamicChanged: dynamicChanged,
		outerBehavior:  behavior,
	}
}

// diffUDP compares h's UDP header against ctx.UDP, reporting whether the
// checksum-presence dynamic field changed: the UDP dynamic chain
// carries a 2-byte checksum that is 0 when coverage is disabled.
func diffUDP(ctx *rctx.Context, h profile.Headers) (staticChanged, dynamicChanged bool) {
	udp := h.UDP
	staticChanged = ctx.UDP.Source != udp.Source || ctx.UDP.Dest != udp.Dest
	checksumChanged := (ctx.UDP.Check == 0) != (udp.Checksum == 0)
	ctx.UDP.ChecksumChangeCount = rctx.BumpOrReset(ctx.UDP.ChecksumChangeCount, checksumChanged)
	ctx.UDP.Source = udp.Source
	ctx.UDP.Dest = udp.Dest
	ctx.UDP.Check = udp.Checksum
	return staticChanged, checksumChanged
}
