package packet

import (
	"fmt"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/bitio"
	"github.com/runZeroInc/rohc/pkg/sdvl"
)

// EncodeUO0 builds the 1-byte UO-0 packet: 0 SN(4) CRC(3), with its CID
// framing: an Add-CID octet in front for a non-zero small CID, or the
// SDVL-encoded CID after the octet when largeCID is set.
func EncodeUO0(cid uint16, snBits, crc3 uint8, largeCID bool) ([]byte, error) {
	w := bitio.NewWriter()
	w.WriteBit(0)
	if err := w.WriteBits(uint64(snBits&0x0F), 4); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(crc3&0x07), 3); err != nil {
		return nil, err
	}
	octet := w.Bytes()[0]

	if largeCID {
		enc, err := sdvl.Encode(uint32(cid))
		if err != nil {
			return nil, err
		}
		return append([]byte{octet}, enc...), nil
	}
	if cid == 0 {
		return []byte{octet}, nil
	}
	addCID, err := AddCIDByte(cid)
	if err != nil {
		return nil, err
	}
	return []byte{addCID, octet}, nil
}

// DecodeUO0 parses a UO-0 octet (with any CID framing already stripped).
func DecodeUO0(octet byte) (snBits, crc3 uint8, err error) {
	if octet&0x80 != 0 {
		return 0, 0, fmt.Errorf("%w: not a UO-0 octet", roherr.ErrMalformedPacket)
	}
	r := bitio.NewReader([]byte{octet})
	if _, err := r.ReadBit(); err != nil {
		return 0, 0, err
	}
	sn, err := r.ReadBits(4)
	if err != nil {
		return 0, 0, err
	}
	c, err := r.ReadBits(3)
	if err != nil {
		return 0, 0, err
	}
	return uint8(sn), uint8(c), nil
}

// EncodeUO1 builds the 2-byte UO-1 packet: 10 IPID(6) / SN(5) CRC(3).
func EncodeUO1(ipidBits, snBits, crc3 uint8) ([]byte, error) {
	w := bitio.NewWriter()
	if err := w.WriteBits(0b10, 2); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(ipidBits&0x3F), 6); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(snBits&0x1F), 5); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(crc3&0x07), 3); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeUO1 parses a 2-byte UO-1 packet.
func DecodeUO1(data []byte) (ipidBits, snBits, crc3 uint8, err error) {
	if len(data) < 2 {
		return 0, 0, 0, fmt.Errorf("%w: UO-1 shorter than 2 bytes", roherr.ErrMalformedPacket)
	}
	r := bitio.NewReader(data[:2])
	prefix, err := r.ReadBits(2)
	if err != nil {
		return 0, 0, 0, err
	}
	if prefix != 0b10 {
		return 0, 0, 0, fmt.Errorf("%w: not a UO-1 packet", roherr.ErrMalformedPacket)
	}
	ipid, err := r.ReadBits(6)
	if err != nil {
		return 0, 0, 0, err
	}
	sn, err := r.ReadBits(5)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := r.ReadBits(3)
	if err != nil {
		return 0, 0, 0, err
	}
	return uint8(ipid), uint8(sn), uint8(c), nil
}

// EncodeUO2 builds the 2-byte UO-2 packet: 110 SN(5) / X CRC(7), plus an
// optional extension appended after the base octets.
func EncodeUO2(snBits uint8, x bool, crc7 uint8, ext Ext, extData []byte) ([]byte, error) {
	w := bitio.NewWriter()
	if err := w.WriteBits(0b110, 3); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(snBits&0x1F), 5); err != nil {
		return nil, err
	}
	var xBit uint64
	if x {
		xBit = 1
	}
	if err := w.WriteBits(xBit, 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(crc7&0x7F), 7); err != nil {
		return nil, err
	}
	out := w.Bytes()
	if x {
		if _, ok := extHeaderBits[ext]; !ok {
			return nil, fmt.Errorf("%w: unknown extension %v", roherr.ErrMalformedPacket, ext)
		}
		// extData already begins with the extension's own 2-bit
		// discriminator, so it follows the base octets directly.
		out = append(out, extData...)
	}
	return out, nil
}

// DecodeUO2Base parses the fixed 2-byte UO-2 base header (the bits
// before any extension). Callers that see X=1 must then parse the
// extension from the following bytes with DecodeExtType and the
// matching DecodeExt0..DecodeExt3.
func DecodeUO2Base(data []byte) (snBits uint8, x bool, crc7 uint8, err error) {
	if len(data) < 2 {
		return 0, false, 0, fmt.Errorf("%w: UO-2 shorter than 2 bytes", roherr.ErrMalformedPacket)
	}
	r := bitio.NewReader(data[:2])
	prefix, err := r.ReadBits(3)
	if err != nil {
		return 0, false, 0, err
	}
	if prefix != 0b110 {
		return 0, false, 0, fmt.Errorf("%w: not a UO-2 packet", roherr.ErrMalformedPacket)
	}
	sn, err := r.ReadBits(5)
	if err != nil {
		return 0, false, 0, err
	}
	xBit, err := r.ReadBit()
	if err != nil {
		return 0, false, 0, err
	}
	c, err := r.ReadBits(7)
	if err != nil {
		return 0, false, 0, err
	}
	return uint8(sn), xBit == 1, uint8(c), nil
}

// extHeaderBits are the 2-bit discriminators prefixing EXT-0..EXT-3.
var extHeaderBits = map[Ext]uint64{
	Ext0: 0b00,
	Ext1: 0b01,
	Ext2: 0b10,
	Ext3: 0b11,
}

func encodeExtHeader(ext Ext) ([]byte, error) {
	bits, ok := extHeaderBits[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unknown extension %v", roherr.ErrMalformedPacket, ext)
	}
	w := bitio.NewWriter()
	if err := w.WriteBits(bits, 2); err != nil {
		return nil, err
	}
	w.PadToByte()
	return w.Bytes(), nil
}

// DecodeExtType reads the 2-bit extension discriminator from the first
// byte following a UO-2 base header with X=1.
func DecodeExtType(b byte) Ext {
	switch b >> 6 {
	case 0b00:
		return Ext0
	case 0b01:
		return Ext1
	case 0b10:
		return Ext2
	case 0b11:
		return Ext3
	default:
		return ExtNone
	}
}

// Ext0Fields holds the SN/IP-ID LSB extensions carried by EXT-0: 3 extra
// SN bits and 3 extra IP-ID bits.
type Ext0Fields struct {
	SN   uint8
	IPID uint8
}

// EncodeExt0 builds a 1-byte EXT-0: 00 SN(3) IP-ID(3).
func EncodeExt0(f Ext0Fields) ([]byte, error) {
	w := bitio.NewWriter()
	if err := w.WriteBits(0b00, 2); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.SN&0x07), 3); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.IPID&0x07), 3); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeExt0 parses a 1-byte EXT-0.
func DecodeExt0(b byte) (Ext0Fields, error) {
	r := bitio.NewReader([]byte{b})
	if _, err := r.ReadBits(2); err != nil {
		return Ext0Fields{}, err
	}
	sn, err := r.ReadBits(3)
	if err != nil {
		return Ext0Fields{}, err
	}
	ipid, err := r.ReadBits(3)
	if err != nil {
		return Ext0Fields{}, err
	}
	return Ext0Fields{SN: uint8(sn), IPID: uint8(ipid)}, nil
}

// Ext1Fields holds the fields carried by EXT-1: 3 extra SN bits and 8
// extra IP-ID bits.
type Ext1Fields struct {
	SN   uint8
	IPID uint8
}

// EncodeExt1 builds a 2-byte EXT-1: 01 SN(3) IP-ID(8), spanning the
// discriminator+SN in byte 0 and IP-ID in byte 1.
func EncodeExt1(f Ext1Fields) ([]byte, error) {
	w := bitio.NewWriter()
	if err := w.WriteBits(0b01, 2); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.SN&0x07), 3); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.IPID)>>5, 3); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.IPID)&0x1F, 5); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeExt1 parses a 2-byte EXT-1.
func DecodeExt1(data []byte) (Ext1Fields, error) {
	if len(data) < 2 {
		return Ext1Fields{}, fmt.Errorf("%w: EXT-1 shorter than 2 bytes", roherr.ErrMalformedPacket)
	}
	r := bitio.NewReader(data[:2])
	if _, err := r.ReadBits(2); err != nil {
		return Ext1Fields{}, err
	}
	sn, err := r.ReadBits(3)
	if err != nil {
		return Ext1Fields{}, err
	}
	hi, err := r.ReadBits(3)
	if err != nil {
		return Ext1Fields{}, err
	}
	lo, err := r.ReadBits(5)
	if err != nil {
		return Ext1Fields{}, err
	}
	return Ext1Fields{SN: uint8(sn), IPID: uint8(hi<<5 | lo)}, nil
}

// Ext2Fields holds the fields carried by EXT-2: 3 extra SN bits plus
// two IP-ID fields (outer IP-ID 8 bits, a second 8-bit field reused for
// a nested IP-ID in multi-IP-header flows; unused here but kept for
// format completeness).
type Ext2Fields struct {
	SN    uint8
	IPID2 uint8
	IPID1 uint8
}

// EncodeExt2 builds a 3-byte EXT-2: 10 SN(3) IP-ID2(8) IP-ID1(8).
func EncodeExt2(f Ext2Fields) ([]byte, error) {
	w := bitio.NewWriter()
	if err := w.WriteBits(0b10, 2); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.SN&0x07), 3); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.IPID2)>>5, 3); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.IPID2)&0x1F, 5); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(f.IPID1), 8); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeExt2 parses a 3-byte EXT-2.
func DecodeExt2(data []byte) (Ext2Fields, error) {
	if len(data) < 3 {
		return Ext2Fields{}, fmt.Errorf("%w: EXT-2 shorter than 3 bytes", roherr.ErrMalformedPacket)
	}
	r := bitio.NewReader(data[:3])
	if _, err := r.ReadBits(2); err != nil {
		return Ext2Fields{}, err
	}
	sn, err := r.ReadBits(3)
	if err != nil {
		return Ext2Fields{}, err
	}
	hi, err := r.ReadBits(3)
	if err != nil {
		return Ext2Fields{}, err
	}
	lo, err := r.ReadBits(5)
	if err != nil {
		return Ext2Fields{}, err
	}
	ipid1, err := r.ReadByte()
	if err != nil {
		return Ext2Fields{}, err
	}
	return Ext2Fields{SN: uint8(sn), IPID2: uint8(hi<<5 | lo), IPID1: ipid1}, nil
}

// Ext3Fields holds the general-purpose EXT-3 bit fields: a mode-change
// flag plus presence flags and values for SN, IP-ID, the IP-ID
// behavior/DF/TTL dynamic fields, and the UDP checksum, so that a
// single extension can refresh any subset of the dynamic chain without
// falling back to IR-DYN.
type Ext3Fields struct {
	Mode            bool
	SNPresent       bool
	SN              uint16
	IPIDPresent     bool
	IPID            uint16
	RND             bool
	TTLPresent      bool
	TTL             uint8
	DF              bool
	ChecksumPresent bool
	Checksum        uint16
}

// EncodeExt3 builds a variable-length EXT-3 header. The first byte is
// 11 Mode(1) S(1) I(1) T(1) DF(1) C(1), where S, I, T and C flag the
// presence of SN, IP-ID, TTL and checksum; subsequent bytes carry the
// present fields in order: SN (2), IP-ID (2) plus an RND byte, TTL (1),
// checksum (2).
func EncodeExt3(f Ext3Fields) ([]byte, error) {
	w := bitio.NewWriter()
	if err := w.WriteBits(0b11, 2); err != nil {
		return nil, err
	}
	var modeBit uint64
	if f.Mode {
		modeBit = 1
	}
	if err := w.WriteBits(modeBit, 1); err != nil {
		return nil, err
	}
	var snBit, ipidBit, ttlBit, dfBit, csumBit uint64
	if f.SNPresent {
		snBit = 1
	}
	if f.IPIDPresent {
		ipidBit = 1
	}
	if f.TTLPresent {
		ttlBit = 1
	}
	if f.DF {
		dfBit = 1
	}
	if f.ChecksumPresent {
		csumBit = 1
	}
	for _, bit := range []uint64{snBit, ipidBit, ttlBit, dfBit, csumBit} {
		if err := w.WriteBits(bit, 1); err != nil {
			return nil, err
		}
	}
	w.PadToByte()
	out := w.Bytes()

	if f.SNPresent {
		sn := make([]byte, 2)
		sn[0], sn[1] = byte(f.SN>>8), byte(f.SN)
		out = append(out, sn...)
	}
	if f.IPIDPresent {
		ipid := make([]byte, 2)
		ipid[0], ipid[1] = byte(f.IPID>>8), byte(f.IPID)
		out = append(out, ipid...)
		var rndByte byte
		if f.RND {
			rndByte = 1
		}
		out = append(out, rndByte)
	}
	if f.TTLPresent {
		out = append(out, f.TTL)
	}
	if f.ChecksumPresent {
		csum := make([]byte, 2)
		csum[0], csum[1] = byte(f.Checksum>>8), byte(f.Checksum)
		out = append(out, csum...)
	}
	return out, nil
}

// DecodeExt3 parses an EXT-3 extension. consumed is the number of bytes
// read from data.
func DecodeExt3(data []byte) (Ext3Fields, int, error) {
	if len(data) < 1 {
		return Ext3Fields{}, 0, fmt.Errorf("%w: EXT-3 empty", roherr.ErrMalformedPacket)
	}
	r := bitio.NewReader(data[:1])
	if _, err := r.ReadBits(2); err != nil {
		return Ext3Fields{}, 0, err
	}
	modeBit, err := r.ReadBit()
	if err != nil {
		return Ext3Fields{}, 0, err
	}
	bits := make([]uint64, 5)
	for i := range bits {
		b, err := r.ReadBit()
		if err != nil {
			return Ext3Fields{}, 0, err
		}
		bits[i] = uint64(b)
	}
	f := Ext3Fields{
		Mode:            modeBit == 1,
		SNPresent:       bits[0] == 1,
		IPIDPresent:     bits[1] == 1,
		TTLPresent:      bits[2] == 1,
		DF:              bits[3] == 1,
		ChecksumPresent: bits[4] == 1,
	}
	consumed := 1
	rest := data[1:]

	if f.SNPresent {
		if len(rest) < 2 {
			return Ext3Fields{}, 0, fmt.Errorf("%w: truncated EXT-3 SN", roherr.ErrMalformedPacket)
		}
		f.SN = uint16(rest[0])<<8 | uint16(rest[1])
		rest = rest[2:]
		consumed += 2
	}
	if f.IPIDPresent {
		if len(rest) < 3 {
			return Ext3Fields{}, 0, fmt.Errorf("%w: truncated EXT-3 IP-ID", roherr.ErrMalformedPacket)
		}
		f.IPID = uint16(rest[0])<<8 | uint16(rest[1])
		f.RND = rest[2] != 0
		rest = rest[3:]
		consumed += 3
	}
	if f.TTLPresent {
		if len(rest) < 1 {
			return Ext3Fields{}, 0, fmt.Errorf("%w: truncated EXT-3 TTL", roherr.ErrMalformedPacket)
		}
		f.TTL = rest[0]
		rest = rest[1:]
		consumed++
	}
	if f.ChecksumPresent {
		if len(rest) < 2 {
			return Ext3Fields{}, 0, fmt.Errorf("%w: truncated EXT-3 checksum", roherr.ErrMalformedPacket)
		}
		f.Checksum = uint16(rest[0])<<8 | uint16(rest[1])
		consumed += 2
	}
	return f, consumed, nil
}
