package decompressor

import "github.com/runZeroInc/rohc/pkg/rctx"

// onIRAccepted moves the decompressor to the Full Context state after
// successfully decoding an IR packet: IR always carries a complete
// static+dynamic chain, so it is trusted unconditionally once its
// CRC-8 checks out.
func onIRAccepted(ctx *rctx.Context) {
	ctx.DecompState = rctx.DecompFC
	ctx.IRFailures = 0
	ctx.CRCFailures = 0
}

// onCRCSuccess records a successful CRC check against a UO-*/IR-DYN
// packet, promoting NC->SC->FC as confidence in the context builds, and
// resetting the CRC-failure counter.
func onCRCSuccess(ctx *rctx.Context) {
	ctx.CRCFailures = 0
	switch ctx.DecompState {
	case rctx.DecompNC:
		ctx.DecompState = rctx.DecompSC
	case rctx.DecompSC:
		ctx.DecompState = rctx.DecompFC
	}
}

// onCRCFailure records a failed CRC check, downgrading the state once
// enough consecutive failures accumulate: FC drops to SC after k1
// failures, SC drops to NC after k2 failures. The caller is
// responsible for deciding whether to emit NACK/STATIC-NACK feedback.
func onCRCFailure(ctx *rctx.Context, k1, k2 uint) {
	ctx.CRCFailures++
	switch ctx.DecompState {
	case rctx.DecompFC:
		if ctx.CRCFailures >= k1 {
			ctx.DecompState = rctx.DecompSC
			ctx.CRCFailures = 0
		}
	case rctx.DecompSC:
		if ctx.CRCFailures >= k2 {
			ctx.DecompState = rctx.DecompNC
			ctx.CRCFailures = 0
		}
	}
}

// DefaultK1 and DefaultK2 are the consecutive-CRC-failure thresholds
// for the FC->SC and SC->NC downgrades.
const (
	DefaultK1 = 3
	DefaultK2 = 3
)
