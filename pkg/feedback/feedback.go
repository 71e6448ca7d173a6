// Package feedback implements the ROHC feedback channel (RFC 3095
// §5.7): FEEDBACK-1's single implicit CRC-validation octet,
// FEEDBACK-2's ACK/NACK/STATIC-NACK codes with optional SN, CRC,
// SN-Not-Valid, Reject and Loss options, and the wire framing (a
// feedback packet is itself wrapped in a FEEDBACK ROHC packet: a
// discriminator octet carrying a small CID, then an SDVL size field).
package feedback

import (
	"fmt"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/sdvl"
)

// Code is the ACKTYPE carried by a FEEDBACK-2 packet (RFC 3095 §5.7.6.2).
type Code uint8

const (
	CodeACK        Code = 0
	CodeNACK       Code = 1
	CodeSTATICNACK Code = 2
	CodeReserved   Code = 3
)

func (c Code) String() string {
	switch c {
	case CodeACK:
		return "ACK"
	case CodeNACK:
		return "NACK"
	case CodeSTATICNACK:
		return "STATIC-NACK"
	default:
		return "RESERVED"
	}
}

// OptionType identifies a FEEDBACK-2 option TLV (RFC 3095 §5.7.6.3).
type OptionType uint8

const (
	OptCRC        OptionType = 1
	OptReject     OptionType = 2
	OptSNNotValid OptionType = 3
	OptSN         OptionType = 4
	OptClock      OptionType = 5
	OptJitter     OptionType = 6
	OptLoss       OptionType = 7
)

// Option is one decoded FEEDBACK-2 option TLV.
type Option struct {
	Type OptionType
	Data []byte
}

// Feedback2 is a decoded FEEDBACK-2 packet (RFC 3095 §5.7.6.2): the
// 2-bit code, up to 12 bits of SN piggybacked in the header, and zero
// or more trailing options.
type Feedback2 struct {
	CID     uint16
	Code    Code
	SNBits  uint16 // low 12 bits, valid only when present via header or OptSN
	Options []Option
}

// EncodeFeedback1 builds a FEEDBACK-1 packet: a single octet holding
// the low 8 bits of the CRC the decompressor verified the last packet
// against (RFC 3095 §5.7.6.1). It is always an implicit positive ACK.
func EncodeFeedback1(crc8 uint8) []byte {
	return []byte{crc8}
}

// DecodeFeedback1 parses a FEEDBACK-1 packet.
func DecodeFeedback1(data []byte) (crc8 uint8, err error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("%w: FEEDBACK-1 must be exactly 1 byte", roherr.ErrMalformedPacket)
	}
	return data[0], nil
}

// EncodeFeedback2 builds a FEEDBACK-2 packet: a 2-bit code plus 14 bits
// of header fields (here folded to code(2)+sn(12) to keep the 12 most
// useful SN LSBs inline) followed by TLV-encoded options.
func EncodeFeedback2(fb Feedback2) []byte {
	out := make([]byte, 2, 2+optionsLen(fb.Options))
	out[0] = byte(fb.Code)<<6 | byte(fb.SNBits>>8&0x0F)
	out[1] = byte(fb.SNBits)
	for _, opt := range fb.Options {
		out = append(out, byte(opt.Type)<<4|byte(len(opt.Data)&0x0F))
		out = append(out, opt.Data...)
	}
	return out
}

func optionsLen(opts []Option) int {
	n := 0
	for _, o := range opts {
		n += 1 + len(o.Data)
	}
	return n
}

// DecodeFeedback2 parses a FEEDBACK-2 packet.
func DecodeFeedback2(data []byte) (Feedback2, error) {
	if len(data) < 2 {
		return Feedback2{}, fmt.Errorf("%w: FEEDBACK-2 shorter than 2 bytes", roherr.ErrMalformedPacket)
	}
	fb := Feedback2{
		Code:   Code(data[0] >> 6),
		SNBits: uint16(data[0]&0x0F)<<8 | uint16(data[1]),
	}
	rest := data[2:]
	for len(rest) > 0 {
		optType := OptionType(rest[0] >> 4)
		optLen := int(rest[0] & 0x0F)
		rest = rest[1:]
		if len(rest) < optLen {
			return Feedback2{}, fmt.Errorf("%w: truncated feedback option", roherr.ErrMalformedPacket)
		}
		fb.Options = append(fb.Options, Option{Type: optType, Data: append([]byte{}, rest[:optLen]...)})
		rest = rest[optLen:]
	}
	return fb, nil
}

// WrapForWire prepends the SDVL-encoded feedback size and CID framing a
// FEEDBACK ROHC packet needs (RFC 3095 §5.7.1): discriminator octet
// 11110000 | smallCID, SDVL size, then the feedback payload. Only CIDs
// 0-7 are carried; for a larger CID the discriminator's CID bits are
// left at 0 and no other CID framing is added.
func WrapForWire(cid uint16, payload []byte) ([]byte, error) {
	sizeField, err := sdvl.Encode(uint32(len(payload)))
	if err != nil {
		return nil, err
	}
	var discriminator byte = 0xF0
	if cid <= 7 {
		discriminator |= byte(cid)
	}
	out := make([]byte, 0, 1+len(sizeField)+len(payload))
	out = append(out, discriminator)
	out = append(out, sizeField...)
	out = append(out, payload...)
	return out, nil
}

// UnwrapFromWire strips the discriminator and SDVL size field off a
// FEEDBACK ROHC packet, returning the small CID (0 when the low nibble
// of the discriminator is used for something else) and the feedback
// payload.
func UnwrapFromWire(data []byte) (cid uint16, payload []byte, err error) {
	if len(data) < 1 {
		return 0, nil, fmt.Errorf("%w: empty feedback packet", roherr.ErrMalformedPacket)
	}
	cid = uint16(data[0] & 0x0F)
	size, n, err := sdvl.Decode(data[1:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: feedback size sdvl: %v", roherr.ErrMalformedPacket, err)
	}
	rest := data[1+n:]
	if uint32(len(rest)) < size {
		return 0, nil, fmt.Errorf("%w: truncated feedback payload", roherr.ErrMalformedPacket)
	}
	return cid, rest[:size], nil
}
