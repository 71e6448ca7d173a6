package compressor

import "github.com/runZeroInc/rohc/pkg/rctx"

// advanceState runs the compressor-side state machine transitions:
// IR -> FO once MaxIRCount consecutive IR
// packets have gone out, FO -> SO once MaxFOCount consecutive FO
// packets have gone out, and the reverse transitions right away
// whenever a static or dynamic field changes. In U-mode, the periodic
// go-back counters additionally force a downgrade even with nothing
// observed to have changed, since there is no feedback channel to
// confirm the peer caught up.
func advanceState(ctx *rctx.Context, cfg rctx.Config, staticChanged, dynamicChanged bool) {
	if staticChanged {
		ctx.CompState = rctx.CompIR
		ctx.IRCount = 0
		ctx.FOCount = 0
		ctx.GoBackFOCount = 0
		ctx.GoBackIRCount = 0
		return
	}
	if dynamicChanged {
		switch ctx.CompState {
		case rctx.CompSO:
			ctx.CompState = rctx.CompFO
			ctx.FOCount = 0
			ctx.GoBackFOCount = 0
		case rctx.CompFO:
			ctx.FOCount = 0
			ctx.GoBackFOCount = 0
		}
	}

	switch ctx.CompState {
	case rctx.CompIR:
		ctx.IRCount++
		if ctx.IRCount >= cfg.MaxIRCount {
			ctx.CompState = rctx.CompFO
			ctx.FOCount = 0
		}
	case rctx.CompFO:
		ctx.FOCount++
		if ctx.FOCount >= cfg.MaxFOCount {
			ctx.CompState = rctx.CompSO
			ctx.SOCount = 0
		}
	case rctx.CompSO:
		ctx.SOCount++
	}

	if ctx.Mode != rctx.UMode {
		return
	}
	applyUModeGoBack(ctx, cfg)
}

// applyUModeGoBack implements the U-mode periodic downgrade: after
// ChangeToFOCount consecutive SO packets, drop back to FO
// once to refresh the peer's confidence in the dynamic chain; after
// ChangeToIRCount consecutive FO-or-SO packets with no feedback at all,
// drop all the way back to IR.
func applyUModeGoBack(ctx *rctx.Context, cfg rctx.Config) {
	switch ctx.CompState {
	case rctx.CompSO:
		ctx.GoBackFOCount++
		ctx.GoBackIRCount++
		if ctx.GoBackFOCount >= cfg.ChangeToFOCount {
			ctx.CompState = rctx.CompFO
			ctx.FOCount = 0
			ctx.GoBackFOCount = 0
		}
	case rctx.CompFO:
		ctx.GoBackIRCount++
	}
	if ctx.GoBackIRCount >= cfg.ChangeToIRCount {
		ctx.CompState = rctx.CompIR
		ctx.IRCount = 0
		ctx.GoBackIRCount = 0
		ctx.GoBackFOCount = 0
	}
}
