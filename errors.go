package rohc

import "github.com/runZeroInc/rohc/internal/roherr"

// Sentinel errors callers can classify with errors.Is. internal/roherr
// is unexported from the module path, so these names are the public
// surface for the error kinds the codec can raise.
var (
	ErrMalformedPacket = roherr.ErrMalformedPacket
	ErrCrcMismatch     = roherr.ErrCrcMismatch
	ErrNoContext       = roherr.ErrNoContext
	ErrProfileMismatch = roherr.ErrProfileMismatch
	ErrFragmented      = roherr.ErrFragmented
	ErrSdvlOverflow    = roherr.ErrSdvlOverflow
)
