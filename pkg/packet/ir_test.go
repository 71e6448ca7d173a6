package packet

import (
	"bytes"
	"testing"
)

func fixedLen(n int) func([]byte) (int, error) {
	return func(b []byte) (int, error) { return n, nil }
}

func TestIRRoundTripNoDynamic(t *testing.T) {
	staticChain := []byte{0x40, 17, 10, 0, 0, 1, 10, 0, 0, 2}
	payload := []byte{0xAA, 0xBB}

	wire, err := EncodeIR(0, 4, 42, false, false, staticChain, nil, payload)
	if err != nil {
		t.Fatalf("EncodeIR: %v", err)
	}

	_, typeByte, rest, err := ParseHeader(wire, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if DetectType(typeByte) != TypeIR {
		t.Fatalf("DetectType = %v, want IR", DetectType(typeByte))
	}

	ir, err := DecodeIR(rest, false, fixedLen(len(staticChain)), fixedLen(0))
	if err != nil {
		t.Fatalf("DecodeIR: %v", err)
	}
	if ir.ProfileID != 4 || ir.SN != 42 || !bytes.Equal(ir.StaticChain, staticChain) || !bytes.Equal(ir.Payload, payload) {
		t.Errorf("DecodeIR round trip mismatch: %+v", ir)
	}
}

func TestIRRoundTripWithDynamicAndCID(t *testing.T) {
	staticChain := []byte{0x40, 17, 10, 0, 0, 1, 10, 0, 0, 2}
	dynamicChain := []byte{0x00, 64, 0x12, 0x34, 0x80, 0x00}
	payload := []byte{0x01}

	wire, err := EncodeIR(5, 2, 1000, false, true, staticChain, dynamicChain, payload)
	if err != nil {
		t.Fatalf("EncodeIR: %v", err)
	}

	cid, typeByte, rest, err := ParseHeader(wire, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if cid != 5 {
		t.Errorf("cid = %d, want 5", cid)
	}
	if DetectType(typeByte) != TypeIR {
		t.Fatalf("DetectType = %v, want IR", DetectType(typeByte))
	}

	ir, err := DecodeIR(rest, true, fixedLen(len(staticChain)), fixedLen(len(dynamicChain)))
	if err != nil {
		t.Fatalf("DecodeIR: %v", err)
	}
	if ir.ProfileID != 2 || ir.SN != 1000 || !bytes.Equal(ir.DynamicChain, dynamicChain) || !bytes.Equal(ir.Payload, payload) {
		t.Errorf("DecodeIR round trip mismatch: %+v", ir)
	}
}

func TestIRCorruptedCRCRejected(t *testing.T) {
	staticChain := []byte{0x40, 17, 10, 0, 0, 1, 10, 0, 0, 2}
	wire, err := EncodeIR(0, 4, 1, false, false, staticChain, nil, nil)
	if err != nil {
		t.Fatalf("EncodeIR: %v", err)
	}
	_, _, rest, err := ParseHeader(wire, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	rest[1] ^= 0xFF // flip the CRC byte
	if _, err := DecodeIR(rest, false, fixedLen(len(staticChain)), fixedLen(0)); err == nil {
		t.Error("DecodeIR should reject a corrupted CRC-8")
	}
}

func TestIRDYNRoundTrip(t *testing.T) {
	dynamicChain := []byte{0x00, 64, 0x56, 0x78, 0x00, 0x00}
	payload := []byte{0xDE, 0xAD}

	wire, err := EncodeIRDYN(3, 2, 7, false, dynamicChain, payload)
	if err != nil {
		t.Fatalf("EncodeIRDYN: %v", err)
	}
	cid, typeByte, rest, err := ParseHeader(wire, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if cid != 3 || DetectType(typeByte) != TypeIRDYN {
		t.Fatalf("cid=%d type=%v", cid, DetectType(typeByte))
	}

	irdyn, err := DecodeIRDYN(rest, fixedLen(len(dynamicChain)))
	if err != nil {
		t.Fatalf("DecodeIRDYN: %v", err)
	}
	if irdyn.ProfileID != 2 || irdyn.SN != 7 || !bytes.Equal(irdyn.DynamicChain, dynamicChain) || !bytes.Equal(irdyn.Payload, payload) {
		t.Errorf("DecodeIRDYN round trip mismatch: %+v", irdyn)
	}
}

func TestIRDYNCorruptedCRCRejected(t *testing.T) {
	dynamicChain := []byte{0x00, 64, 0x56, 0x78, 0x00, 0x00}
	wire, err := EncodeIRDYN(0, 2, 7, false, dynamicChain, nil)
	if err != nil {
		t.Fatalf("EncodeIRDYN: %v", err)
	}
	_, _, rest, err := ParseHeader(wire, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	rest[1] ^= 0x01
	if _, err := DecodeIRDYN(rest, fixedLen(len(dynamicChain))); err == nil {
		t.Error("DecodeIRDYN should reject a corrupted CRC-8")
	}
}
