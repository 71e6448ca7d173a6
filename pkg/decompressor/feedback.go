package decompressor

import (
	"errors"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/feedback"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// BuildFeedback decides what feedback, if any, the decompressor should
// send back to its compressor after a Decompress call, given the
// context it decoded against and that call's error (nil on success).
// U-mode contexts never generate feedback (U-mode is unidirectional by
// definition); O-mode and R-mode contexts ACK every
// successfully decoded packet and NACK/STATIC-NACK on CRC failure, per
// RFC 3095 §5.7.6.2.
func BuildFeedback(ctx *rctx.Context, decodeErr error) (feedback.Feedback2, bool) {
	if ctx == nil || ctx.Mode == rctx.UMode {
		return feedback.Feedback2{}, false
	}
	if decodeErr == nil {
		return feedback.Feedback2{Code: feedback.CodeACK, SNBits: ctx.SN & 0x0FFF}, true
	}
	if !errors.Is(decodeErr, roherr.ErrCrcMismatch) {
		return feedback.Feedback2{}, false
	}
	if ctx.DecompState == rctx.DecompNC {
		return feedback.Feedback2{Code: feedback.CodeSTATICNACK}, true
	}
	return feedback.Feedback2{Code: feedback.CodeNACK, SNBits: ctx.SN & 0x0FFF}, true
}
