package profile

// protocol numbers relevant to profile selection.
const (
	protoUDP = 17
)

// SelectForHeaders returns the most specific profile in r able to
// compress h -- UDP(-Lite) when the transport is UDP, with the caller's
// udpLite flag choosing Lite, IP-only otherwise.
// Profile negotiation itself is out of scope here; a context commits
// to exactly one profile at creation.
func (r Registry) SelectForHeaders(h Headers, udpLite bool) Profile {
	if h.UDP != nil && h.Outer != nil && h.Outer.Protocol == protoUDP {
		if udpLite {
			return r[IDUDPLite]
		}
		return r[IDUDP]
	}
	return r[IDIPOnly]
}
