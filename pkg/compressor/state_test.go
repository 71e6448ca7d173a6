package compressor

import (
	"testing"

	"github.com/runZeroInc/rohc/pkg/profile"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

func TestAdvanceStateFODynamicChangeResetsFOCount(t *testing.T) {
	cfg := rctx.DefaultConfig()
	cfg.MaxFOCount = 2
	ctx := rctx.NewContext(1, profile.IDIPOnly, rctx.OMode, cfg, false, false)
	ctx.CompState = rctx.CompFO
	ctx.FOCount = 1 // one packet away from promoting to SO

	advanceState(ctx, cfg, false, true)

	if ctx.CompState != rctx.CompFO {
		t.Fatalf("CompState = %v, want FO to stay held while a dynamic field just changed", ctx.CompState)
	}
	if ctx.FOCount != 1 {
		t.Errorf("FOCount = %d, want 1 (reset to 0, then incremented for this packet)", ctx.FOCount)
	}
}

func TestAdvanceStateFOPromotesToSOOnlyWithNoChanges(t *testing.T) {
	cfg := rctx.DefaultConfig()
	cfg.MaxFOCount = 2
	ctx := rctx.NewContext(1, profile.IDIPOnly, rctx.OMode, cfg, false, false)
	ctx.CompState = rctx.CompFO
	ctx.FOCount = 1

	advanceState(ctx, cfg, false, false)

	if ctx.CompState != rctx.CompSO {
		t.Errorf("CompState = %v, want SO after MaxFOCount unchanged FO packets", ctx.CompState)
	}
}
