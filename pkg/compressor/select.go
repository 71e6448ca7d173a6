package compressor

import "github.com/runZeroInc/rohc/pkg/rctx"

// packetKind is the compressor's internal choice of wire format for one
// outgoing packet. It is distinct from packet.Type
// since IR vs IR-DYN is a compressor decision made before the packet
// even exists, not something recovered by inspecting bytes.
type packetKind int

const (
	packetKindIR packetKind = iota
	packetKindIRDYN
	packetKindUO0
	packetKindUO1
	packetKindUO2
)

func (k packetKind) String() string {
	switch k {
	case packetKindIR:
		return "IR"
	case packetKindIRDYN:
		return "IR-DYN"
	case packetKindUO0:
		return "UO-0"
	case packetKindUO1:
		return "UO-1"
	default:
		return "UO-2"
	}
}

// choosePacketType selects the smallest packet format the current
// state and field changes allow -- always send the smallest packet
// the state permits: IR while in the IR state, IR-DYN for every packet
// sent in the FO state and in SO whenever a dynamic field just
// changed, and otherwise the smallest of UO-0/UO-1/UO-2 the outer
// IP-ID behavior supports.
func choosePacketType(ctx *rctx.Context, dynamicChanged bool) packetKind {
	switch ctx.CompState {
	case rctx.CompIR:
		return packetKindIR
	case rctx.CompFO:
		return packetKindIRDYN
	default: // CompSO
		if dynamicChanged {
			return packetKindIRDYN
		}
		return chooseUOVariant(ctx)
	}
}

// chooseUOVariant picks among UO-0/UO-1/UO-2 once the context is fully
// established: UO-0 needs only the SN LSBs and fits when the IP-ID
// hasn't moved since the last packet, UO-1 carries IP-ID LSBs for a
// sequentially-advancing field but only fits the 6 bits it has room
// for, and UO-2 is the fallback with its optional extension once more
// SN/IP-ID bits are needed than either smaller format can carry.
func chooseUOVariant(ctx *rctx.Context) packetKind {
	snK := ctx.SNWindow.GetK(uint32(ctx.SN))
	ipidK := ctx.Outer.IPIDWindow.GetK(uint32(ctx.Outer.IPID))
	ipidUnchanged := ctx.Outer.IPIDWindow.Len() == 0 || sameLowBits(ctx.Outer.IPID, ctx.Outer.IPIDWindow)

	if snK <= 4 && ipidUnchanged {
		return packetKindUO0
	}
	if !ctx.Outer.RND && snK <= 5 && ipidK <= 6 {
		return packetKindUO1
	}
	return packetKindUO2
}

// sameLowBits is a conservative stand-in for "the IP-ID needs no bits
// in this packet": true when every reference value still in the window
// requires zero LSBs to resolve the current one.
func sameLowBits(current uint16, w interface{ GetK(uint32) uint }) bool {
	return w.GetK(uint32(current)) == 0
}
