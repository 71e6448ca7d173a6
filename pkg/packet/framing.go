package packet

import (
	"fmt"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/sdvl"
)

const (
	addCIDMask   = 0xF0
	addCIDValue  = 0xE0
	irByteMask   = 0xFE
	irByteValue  = 0xFC
	irDynByte    = 0xF8
	feedbackMask = 0xF8
	feedbackVal  = 0xF0
	uo2Mask      = 0xE0
	uo2Value     = 0xC0
	uo1Mask      = 0xC0
	uo1Value     = 0x80
	uo0Mask      = 0x80
	uo0Value     = 0x00
)

// DetectType classifies a packet-type discriminator octet.
func DetectType(b byte) Type {
	switch {
	case b == irDynByte:
		return TypeIRDYN
	case b&irByteMask == irByteValue:
		return TypeIR
	case b&feedbackMask == feedbackVal:
		return TypeFeedback
	case b&uo2Mask == uo2Value:
		return TypeUO2
	case b&uo1Mask == uo1Value:
		return TypeUO1
	case b&uo0Mask == uo0Value:
		return TypeUO0
	default:
		return TypeUnknown
	}
}

// IsAddCID reports whether b is an Add-CID octet (1110cccc).
func IsAddCID(b byte) bool {
	return b&addCIDMask == addCIDValue
}

// AddCIDByte returns the Add-CID octet for a small CID in [1,15].
func AddCIDByte(cid uint16) (byte, error) {
	if cid < 1 || cid > 15 {
		return 0, fmt.Errorf("%w: small CID %d out of range [1,15]", roherr.ErrMalformedPacket, cid)
	}
	return addCIDValue | byte(cid), nil
}

// ParseHeader strips CID framing from the front of a ROHC packet and
// returns the CID, the packet-type discriminator byte, and the rest of
// the packet. largeCID selects whether the peer is running in
// large-CID mode.
func ParseHeader(data []byte, largeCID bool) (cid uint16, typeByte byte, rest []byte, err error) {
	if len(data) == 0 {
		return 0, 0, nil, fmt.Errorf("%w: empty packet", roherr.ErrMalformedPacket)
	}

	if largeCID {
		typeByte = data[0]
		cidVal, n, derr := sdvl.Decode(data[1:])
		if derr != nil {
			return 0, 0, nil, fmt.Errorf("%w: large CID sdvl: %v", roherr.ErrMalformedPacket, derr)
		}
		if cidVal > 16383 {
			return 0, 0, nil, fmt.Errorf("%w: large CID %d out of range", roherr.ErrMalformedPacket, cidVal)
		}
		return uint16(cidVal), typeByte, data[1+n:], nil
	}

	if IsAddCID(data[0]) {
		if len(data) < 2 {
			return 0, 0, nil, fmt.Errorf("%w: truncated after Add-CID octet", roherr.ErrMalformedPacket)
		}
		return uint16(data[0] & 0x0F), data[1], data[2:], nil
	}
	return 0, data[0], data[1:], nil
}

// BuildHeader returns the CID-framing prefix bytes to prepend before a
// packet's body: nothing for small CID 0, an Add-CID octet for small
// CIDs 1-15, or the packet-type octet followed by an SDVL-encoded CID
// for large-CID mode. typeByte is returned as part of the prefix so
// callers always get one contiguous slice to prepend.
func BuildHeader(cid uint16, typeByte byte, largeCID bool) ([]byte, error) {
	if largeCID {
		if cid > 16383 {
			return nil, fmt.Errorf("%w: large CID %d out of range", roherr.ErrMalformedPacket, cid)
		}
		enc, err := sdvl.Encode(uint32(cid))
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, 1+len(enc))
		out = append(out, typeByte)
		out = append(out, enc...)
		return out, nil
	}

	if cid == 0 {
		return []byte{typeByte}, nil
	}
	addCID, err := AddCIDByte(cid)
	if err != nil {
		return nil, err
	}
	return []byte{addCID, typeByte}, nil
}
