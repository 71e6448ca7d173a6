// Package packet implements the ROHC packet codec: wire framing (Add-CID,
// large-CID SDVL), the IR/IR-DYN/UO-0/UO-1/UO-2 formats with their
// extensions, and the IPv4/UDP static and dynamic chain fragments.
// Packet shapes are modeled as a tagged variant rather than as
// bit-field structs mapped over memory, collapsing what would
// otherwise be a separate packed struct per wire format into one
// encode/decode pair per chain.
package packet

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/runZeroInc/rohc/internal/roherr"
)

// IPv4Header is the subset of an IPv4 header ROHC's IP-only/UDP profiles
// care about.
type IPv4Header struct {
	Version    uint8
	TOS        uint8
	TotalLen   uint16
	ID         uint16
	DF         bool
	MF         bool
	FragOffset uint16
	TTL        uint8
	Protocol   uint8
	Checksum   uint16
	Src        net.IP
	Dst        net.IP
}

// ParseIPv4 parses an IPv4 header (including options, which are skipped)
// from the front of data, returning the header and the remaining payload.
func ParseIPv4(data []byte) (*IPv4Header, []byte, error) {
	if len(data) < 20 {
		return nil, nil, fmt.Errorf("%w: ipv4 header shorter than 20 bytes", roherr.ErrMalformedPacket)
	}
	version := data[0] >> 4
	ihl := int(data[0]&0x0F) * 4
	if version != 4 {
		return nil, nil, fmt.Errorf("%w: unsupported IP version %d", roherr.ErrMalformedPacket, version)
	}
	if ihl < 20 || len(data) < ihl {
		return nil, nil, fmt.Errorf("%w: invalid IHL %d", roherr.ErrMalformedPacket, ihl)
	}

	flagsFrag := binary.BigEndian.Uint16(data[6:8])
	h := &IPv4Header{
		Version:    version,
		TOS:        data[1],
		TotalLen:   binary.BigEndian.Uint16(data[2:4]),
		ID:         binary.BigEndian.Uint16(data[4:6]),
		DF:         flagsFrag&0x4000 != 0,
		MF:         flagsFrag&0x2000 != 0,
		FragOffset: flagsFrag & 0x1FFF,
		TTL:        data[8],
		Protocol:   data[9],
		Checksum:   binary.BigEndian.Uint16(data[10:12]),
		Src:        net.IPv4(data[12], data[13], data[14], data[15]).To4(),
		Dst:        net.IPv4(data[16], data[17], data[18], data[19]).To4(),
	}
	if h.MF || h.FragOffset != 0 {
		return nil, nil, fmt.Errorf("%w: MF=%v fragOffset=%d", roherr.ErrFragmented, h.MF, h.FragOffset)
	}
	return h, data[ihl:], nil
}

// StaticEqual reports whether the static fields of two headers match --
// the test a profile uses to decide an incoming packet belongs to an
// existing context.
func (h *IPv4Header) StaticEqual(o *IPv4Header) bool {
	return h.Version == o.Version && h.Protocol == o.Protocol &&
		h.Src.Equal(o.Src) && h.Dst.Equal(o.Dst)
}

// StaticChain encodes the IPv4 static chain fragment: version nibble +
// reserved nibble, protocol, 4-byte src, 4-byte dst.
func (h *IPv4Header) StaticChain() []byte {
	out := make([]byte, 0, 10)
	out = append(out, h.Version<<4)
	out = append(out, h.Protocol)
	out = append(out, h.Src.To4()...)
	out = append(out, h.Dst.To4()...)
	return out
}

// ParseIPv4StaticChain is the inverse of StaticChain.
func ParseIPv4StaticChain(data []byte) (*IPv4Header, int, error) {
	if len(data) < 10 {
		return nil, 0, fmt.Errorf("%w: truncated ipv4 static chain", roherr.ErrMalformedPacket)
	}
	h := &IPv4Header{
		Version:  data[0] >> 4,
		Protocol: data[1],
		Src:      net.IPv4(data[2], data[3], data[4], data[5]).To4(),
		Dst:      net.IPv4(data[6], data[7], data[8], data[9]).To4(),
	}
	return h, 10, nil
}

// DynamicChain encodes the IPv4 dynamic chain fragment: TOS, TTL,
// 2-byte IP-ID, flags byte (DF RND NBO 0 0 0 0 0), and an empty
// generic-extension-header-list octet.
func (h *IPv4Header) DynamicChain(rnd, nbo bool) []byte {
	var flags uint8
	if h.DF {
		flags |= 0x80
	}
	if rnd {
		flags |= 0x40
	}
	if nbo {
		flags |= 0x20
	}
	out := make([]byte, 6)
	out[0] = h.TOS
	out[1] = h.TTL
	binary.BigEndian.PutUint16(out[2:4], h.ID)
	out[4] = flags
	out[5] = 0 // empty generic extension header list
	return out
}

// ParseIPv4DynamicChain is the inverse of DynamicChain.
func ParseIPv4DynamicChain(data []byte) (tos, ttl uint8, id uint16, df, rnd, nbo bool, consumed int, err error) {
	if len(data) < 6 {
		return 0, 0, 0, false, false, false, 0, fmt.Errorf("%w: truncated ipv4 dynamic chain", roherr.ErrMalformedPacket)
	}
	tos = data[0]
	ttl = data[1]
	id = binary.BigEndian.Uint16(data[2:4])
	flags := data[4]
	df = flags&0x80 != 0
	rnd = flags&0x40 != 0
	nbo = flags&0x20 != 0
	return tos, ttl, id, df, rnd, nbo, 6, nil
}

// Marshal serializes h as a 20-byte IPv4 header (no options) followed
// by payload, recomputing TotalLen and the header checksum the way any
// IP stack would before handing the datagram to a link layer.
func (h *IPv4Header) Marshal(payload []byte) []byte {
	out := make([]byte, 20+len(payload))
	out[0] = h.Version<<4 | 5
	out[1] = h.TOS
	binary.BigEndian.PutUint16(out[2:4], uint16(20+len(payload)))
	binary.BigEndian.PutUint16(out[4:6], h.ID)
	var flagsFrag uint16
	if h.DF {
		flagsFrag |= 0x4000
	}
	binary.BigEndian.PutUint16(out[6:8], flagsFrag)
	out[8] = h.TTL
	out[9] = h.Protocol
	copy(out[12:16], h.Src.To4())
	copy(out[16:20], h.Dst.To4())
	binary.BigEndian.PutUint16(out[10:12], ipv4Checksum(out[:20]))
	copy(out[20:], payload)
	return out
}

// ipv4Checksum computes the standard ones-complement-of-ones-complement-sum
// IPv4 header checksum over hdr, zeroing hdr's checksum field (bytes
// 10:12) first.
func ipv4Checksum(hdr []byte) uint16 {
	hdr[10], hdr[11] = 0, 0
	var sum uint32
	for i := 0; i+1 < len(hdr); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(hdr[i : i+2]))
	}
	for sum>>16 != 0 {
		sum = sum&0xFFFF + sum>>16
	}
	return ^uint16(sum)
}
