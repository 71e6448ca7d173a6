package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/runZeroInc/rohc/internal/roherr"
)

// UDPHeader is the subset of a UDP/UDP-Lite header the profile cares
// about.
type UDPHeader struct {
	Source   uint16
	Dest     uint16
	Length   uint16
	Checksum uint16
}

// ParseUDP parses a UDP header from the front of data.
func ParseUDP(data []byte) (*UDPHeader, []byte, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("%w: udp header shorter than 8 bytes", roherr.ErrMalformedPacket)
	}
	h := &UDPHeader{
		Source:   binary.BigEndian.Uint16(data[0:2]),
		Dest:     binary.BigEndian.Uint16(data[2:4]),
		Length:   binary.BigEndian.Uint16(data[4:6]),
		Checksum: binary.BigEndian.Uint16(data[6:8]),
	}
	return h, data[8:], nil
}

// StaticChain encodes the UDP static chain fragment: source port,
// destination port.
func (h *UDPHeader) StaticChain() []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint16(out[0:2], h.Source)
	binary.BigEndian.PutUint16(out[2:4], h.Dest)
	return out
}

// ParseUDPStaticChain is the inverse of StaticChain.
func ParseUDPStaticChain(data []byte) (source, dest uint16, consumed int, err error) {
	if len(data) < 4 {
		return 0, 0, 0, fmt.Errorf("%w: truncated udp static chain", roherr.ErrMalformedPacket)
	}
	return binary.BigEndian.Uint16(data[0:2]), binary.BigEndian.Uint16(data[2:4]), 4, nil
}

// DynamicChain encodes the UDP dynamic chain fragment: the 2-byte
// checksum.
func (h *UDPHeader) DynamicChain() []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, h.Checksum)
	return out
}

// ParseUDPDynamicChain is the inverse of DynamicChain.
func ParseUDPDynamicChain(data []byte) (checksum uint16, consumed int, err error) {
	if len(data) < 2 {
		return 0, 0, fmt.Errorf("%w: truncated udp dynamic chain", roherr.ErrMalformedPacket)
	}
	return binary.BigEndian.Uint16(data[0:2]), 2, nil
}

// Marshal serializes h and payload into a full 8-byte-header UDP
// datagram. The Length field is recomputed from len(payload); the
// Checksum field is carried through unchanged (a decompressed context
// already holds the sender's last checksum, which is what a ROHC
// decompressor is required to reproduce rather than recompute).
func (h *UDPHeader) Marshal(payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint16(out[0:2], h.Source)
	binary.BigEndian.PutUint16(out[2:4], h.Dest)
	binary.BigEndian.PutUint16(out[4:6], uint16(8+len(payload)))
	binary.BigEndian.PutUint16(out[6:8], h.Checksum)
	copy(out[8:], payload)
	return out
}
