package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/crc"
)

// EncodeIR builds the wire bytes for an IR packet: first byte 1111110D,
// CID framing, profile ID, CRC-8 (computed with this byte zeroed, then
// patched in), static chain, dynamic chain if hasDynamic, SN, payload.
func EncodeIR(cid, profileID, sn uint16, largeCID, hasDynamic bool, staticChain, dynamicChain, payload []byte) ([]byte, error) {
	var d byte
	if hasDynamic {
		d = 1
	}
	typeByte := irByteValue | d

	header, err := BuildHeader(cid, typeByte, largeCID)
	if err != nil {
		return nil, err
	}

	// The CRC-8 covers everything from the profile octet onward, never
	// the CID-framing prefix, so this matches the span DecodeIR
	// recomputes over the post-ParseHeader body.
	rest := make([]byte, 0, 1+1+len(staticChain)+len(dynamicChain)+2+len(payload))
	rest = append(rest, byte(profileID))
	crcOffset := len(rest)
	rest = append(rest, 0) // CRC-8 placeholder
	rest = append(rest, staticChain...)
	if hasDynamic {
		rest = append(rest, dynamicChain...)
	}
	snBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(snBytes, sn)
	rest = append(rest, snBytes...)
	rest = append(rest, payload...)

	rest[crcOffset] = crc.Compute(crc.Poly8, crc.ZeroedCopy(rest, crcOffset))

	body := make([]byte, 0, len(header)+len(rest))
	body = append(body, header...)
	body = append(body, rest...)
	return body, nil
}

// DecodeIR parses an IR packet body (the bytes after CID framing was
// already stripped by ParseHeader) given the profile's static/dynamic
// chain parsers.
//
// staticLen/dynamicLen are callbacks because the static chain length
// depends on the profile (IP-only vs UDP adds 4 more static bytes) and
// whether a second (inner) IP header is present.
func DecodeIR(body []byte, hasDynamic bool, staticLen func([]byte) (int, error), dynamicLen func([]byte) (int, error)) (*IR, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: IR body too short", roherr.ErrMalformedPacket)
	}
	profileID := uint16(body[0])
	gotCRC := body[1]

	rest := body[2:]
	sLen, err := staticLen(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) < sLen {
		return nil, fmt.Errorf("%w: truncated static chain", roherr.ErrMalformedPacket)
	}
	staticChain := rest[:sLen]
	rest = rest[sLen:]

	var dynamicChain []byte
	if hasDynamic {
		dLen, err := dynamicLen(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) < dLen {
			return nil, fmt.Errorf("%w: truncated dynamic chain", roherr.ErrMalformedPacket)
		}
		dynamicChain = rest[:dLen]
		rest = rest[dLen:]
	}

	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: truncated SN", roherr.ErrMalformedPacket)
	}
	sn := binary.BigEndian.Uint16(rest[:2])
	payload := rest[2:]

	whole := make([]byte, 0, len(body))
	whole = append(whole, byte(profileID), 0)
	whole = append(whole, staticChain...)
	if hasDynamic {
		whole = append(whole, dynamicChain...)
	}
	snBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(snBytes, sn)
	whole = append(whole, snBytes...)
	whole = append(whole, payload...)
	wantCRC := crc.Compute(crc.Poly8, whole)
	if wantCRC != gotCRC {
		return nil, fmt.Errorf("%w: IR CRC-8 got %#x want %#x", roherr.ErrCrcMismatch, gotCRC, wantCRC)
	}

	return &IR{
		ProfileID:    profileID,
		CRC:          gotCRC,
		HasDynamic:   hasDynamic,
		StaticChain:  staticChain,
		DynamicChain: dynamicChain,
		SN:           sn,
		Payload:      payload,
	}, nil
}

// EncodeIRDYN builds the wire bytes for an IR-DYN packet: first byte
// 11111000, CID framing, profile ID, CRC-8, dynamic chain, SN, payload.
func EncodeIRDYN(cid, profileID, sn uint16, largeCID bool, dynamicChain, payload []byte) ([]byte, error) {
	header, err := BuildHeader(cid, irDynByte, largeCID)
	if err != nil {
		return nil, err
	}

	rest := make([]byte, 0, 1+1+len(dynamicChain)+2+len(payload))
	rest = append(rest, byte(profileID))
	crcOffset := len(rest)
	rest = append(rest, 0)
	rest = append(rest, dynamicChain...)
	snBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(snBytes, sn)
	rest = append(rest, snBytes...)
	rest = append(rest, payload...)

	rest[crcOffset] = crc.Compute(crc.Poly8, crc.ZeroedCopy(rest, crcOffset))

	body := make([]byte, 0, len(header)+len(rest))
	body = append(body, header...)
	body = append(body, rest...)
	return body, nil
}

// DecodeIRDYN parses an IR-DYN packet body.
func DecodeIRDYN(body []byte, dynamicLen func([]byte) (int, error)) (*IRDYN, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: IR-DYN body too short", roherr.ErrMalformedPacket)
	}
	profileID := uint16(body[0])
	gotCRC := body[1]
	rest := body[2:]

	dLen, err := dynamicLen(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) < dLen {
		return nil, fmt.Errorf("%w: truncated dynamic chain", roherr.ErrMalformedPacket)
	}
	dynamicChain := rest[:dLen]
	rest = rest[dLen:]

	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: truncated SN", roherr.ErrMalformedPacket)
	}
	sn := binary.BigEndian.Uint16(rest[:2])
	payload := rest[2:]

	whole := make([]byte, 0, len(body))
	whole = append(whole, byte(profileID), 0)
	whole = append(whole, dynamicChain...)
	snBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(snBytes, sn)
	whole = append(whole, snBytes...)
	whole = append(whole, payload...)
	wantCRC := crc.Compute(crc.Poly8, whole)
	if wantCRC != gotCRC {
		return nil, fmt.Errorf("%w: IR-DYN CRC-8 got %#x want %#x", roherr.ErrCrcMismatch, gotCRC, wantCRC)
	}

	return &IRDYN{
		ProfileID:    profileID,
		CRC:          gotCRC,
		DynamicChain: dynamicChain,
		SN:           sn,
		Payload:      payload,
	}, nil
}
