package compressor

import (
	"github.com/runZeroInc/rohc/pkg/feedback"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// Feedback is the subset of a decoded feedback.Feedback2 the compressor
// state machine reacts to: the ACKTYPE and, when present, the
// acknowledged SN.
type Feedback struct {
	Code  feedback.Code
	SN    uint32
	HasSN bool
}

// FromFeedback2 extracts a Feedback from a decoded FEEDBACK-2 packet,
// preferring an explicit OptSN option's value over the header's 12-bit
// SNBits field when present (RFC 3095 §5.7.6.3: OptSN carries the full
// SN, SNBits is a truncated convenience copy).
func FromFeedback2(fb feedback.Feedback2) Feedback {
	out := Feedback{Code: fb.Code}
	for _, opt := range fb.Options {
		if opt.Type == feedback.OptSN && len(opt.Data) >= 1 {
			var sn uint32
			for _, b := range opt.Data {
				sn = sn<<8 | uint32(b)
			}
			out.SN = sn
			out.HasSN = true
			return out
		}
	}
	out.SN = uint32(fb.SNBits)
	out.HasSN = true
	return out
}

// applyFeedback reacts to one piece of received feedback (RFC 3095
// §5.7.6.2): ACK lets the compressor forget W-LSB reference
// values up to the acknowledged SN; NACK forces a downgrade to FO so
// the dynamic chain gets refreshed; STATIC-NACK forces a full downgrade
// to IR since the decompressor has lost the static context entirely.
func applyFeedback(ctx *rctx.Context, fb Feedback) {
	switch fb.Code {
	case feedback.CodeACK:
		if fb.HasSN {
			ctx.SNWindow.Ack(fb.SN)
			ctx.Outer.IPIDWindow.Ack(fb.SN)
			if ctx.HasInner {
				ctx.Inner.IPIDWindow.Ack(fb.SN)
			}
		}
	case feedback.CodeNACK:
		if ctx.CompState == rctx.CompSO {
			ctx.CompState = rctx.CompFO
			ctx.FOCount = 0
			ctx.GoBackFOCount = 0
		}
	case feedback.CodeSTATICNACK:
		ctx.CompState = rctx.CompIR
		ctx.IRCount = 0
		ctx.GoBackFOCount = 0
		ctx.GoBackIRCount = 0
		ctx.SNWindow.Reset()
		ctx.Outer.IPIDWindow.Reset()
		if ctx.HasInner {
			ctx.Inner.IPIDWindow.Reset()
		}
	}
}
