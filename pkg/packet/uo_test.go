package packet

import "testing"

func TestUO0RoundTripNoCID(t *testing.T) {
	wire, err := EncodeUO0(0, 0x0A, 0x05, false)
	if err != nil {
		t.Fatalf("EncodeUO0: %v", err)
	}
	if len(wire) != 1 {
		t.Fatalf("UO-0 wire length = %d, want 1", len(wire))
	}
	if DetectType(wire[0]) != TypeUO0 {
		t.Fatalf("DetectType = %v, want UO-0", DetectType(wire[0]))
	}
	sn, c, err := DecodeUO0(wire[0])
	if err != nil {
		t.Fatalf("DecodeUO0: %v", err)
	}
	if sn != 0x0A || c != 0x05 {
		t.Errorf("DecodeUO0 = sn=%#x crc=%#x, want sn=0xa crc=0x5", sn, c)
	}
}

func TestUO0RoundTripWithSmallCID(t *testing.T) {
	wire, err := EncodeUO0(3, 0x01, 0x07, false)
	if err != nil {
		t.Fatalf("EncodeUO0: %v", err)
	}
	if len(wire) != 2 {
		t.Fatalf("UO-0 wire length = %d, want 2", len(wire))
	}
	cid, typeByte, rest, err := ParseHeader(wire, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if cid != 3 || len(rest) != 0 {
		t.Fatalf("cid=%d rest=%v", cid, rest)
	}
	sn, c, err := DecodeUO0(typeByte)
	if err != nil {
		t.Fatalf("DecodeUO0: %v", err)
	}
	if sn != 0x01 || c != 0x07 {
		t.Errorf("DecodeUO0 = sn=%#x crc=%#x", sn, c)
	}
}

func TestDecodeUO0RejectsWrongDiscriminator(t *testing.T) {
	if _, _, err := DecodeUO0(0x80); err == nil {
		t.Error("DecodeUO0 should reject an octet with the top bit set")
	}
}

func TestUO1RoundTrip(t *testing.T) {
	wire, err := EncodeUO1(0x2A, 0x15, 0x03)
	if err != nil {
		t.Fatalf("EncodeUO1: %v", err)
	}
	if len(wire) != 2 {
		t.Fatalf("UO-1 wire length = %d, want 2", len(wire))
	}
	if DetectType(wire[0]) != TypeUO1 {
		t.Fatalf("DetectType = %v, want UO-1", DetectType(wire[0]))
	}
	ipid, sn, c, err := DecodeUO1(wire)
	if err != nil {
		t.Fatalf("DecodeUO1: %v", err)
	}
	if ipid != 0x2A || sn != 0x15 || c != 0x03 {
		t.Errorf("DecodeUO1 = ipid=%#x sn=%#x crc=%#x", ipid, sn, c)
	}
}

func TestUO2RoundTripNoExt(t *testing.T) {
	wire, err := EncodeUO2(0x1F, false, 0x7A, ExtNone, nil)
	if err != nil {
		t.Fatalf("EncodeUO2: %v", err)
	}
	if len(wire) != 2 {
		t.Fatalf("UO-2 wire length = %d, want 2", len(wire))
	}
	if DetectType(wire[0]) != TypeUO2 {
		t.Fatalf("DetectType = %v, want UO-2", DetectType(wire[0]))
	}
	sn, x, c, err := DecodeUO2Base(wire)
	if err != nil {
		t.Fatalf("DecodeUO2Base: %v", err)
	}
	if sn != 0x1F || x || c != 0x7A {
		t.Errorf("DecodeUO2Base = sn=%#x x=%v crc=%#x", sn, x, c)
	}
}

func TestUO2RoundTripWithExt0(t *testing.T) {
	ext0, err := EncodeExt0(Ext0Fields{SN: 0x5, IPID: 0x3})
	if err != nil {
		t.Fatalf("EncodeExt0: %v", err)
	}
	wire, err := EncodeUO2(0x01, true, 0x10, Ext0, ext0)
	if err != nil {
		t.Fatalf("EncodeUO2: %v", err)
	}
	sn, x, c, err := DecodeUO2Base(wire)
	if err != nil {
		t.Fatalf("DecodeUO2Base: %v", err)
	}
	if !x {
		t.Fatalf("expected X=1")
	}
	extByte := wire[2]
	if DecodeExtType(extByte) != Ext0 {
		t.Fatalf("DecodeExtType = %v, want Ext0", DecodeExtType(extByte))
	}
	fields, err := DecodeExt0(wire[2])
	if err != nil {
		t.Fatalf("DecodeExt0: %v", err)
	}
	if sn != 0x01 || c != 0x10 || fields.SN != 0x5 || fields.IPID != 0x3 {
		t.Errorf("mismatch: sn=%#x crc=%#x fields=%+v", sn, c, fields)
	}
}

func TestExt1RoundTrip(t *testing.T) {
	wire, err := EncodeExt1(Ext1Fields{SN: 0x6, IPID: 0xAB})
	if err != nil {
		t.Fatalf("EncodeExt1: %v", err)
	}
	if len(wire) != 2 {
		t.Fatalf("EXT-1 length = %d, want 2", len(wire))
	}
	got, err := DecodeExt1(wire)
	if err != nil {
		t.Fatalf("DecodeExt1: %v", err)
	}
	if got.SN != 0x6 || got.IPID != 0xAB {
		t.Errorf("DecodeExt1 = %+v", got)
	}
}

func TestExt2RoundTrip(t *testing.T) {
	wire, err := EncodeExt2(Ext2Fields{SN: 0x4, IPID2: 0xCD, IPID1: 0xEF})
	if err != nil {
		t.Fatalf("EncodeExt2: %v", err)
	}
	if len(wire) != 3 {
		t.Fatalf("EXT-2 length = %d, want 3", len(wire))
	}
	got, err := DecodeExt2(wire)
	if err != nil {
		t.Fatalf("DecodeExt2: %v", err)
	}
	if got.SN != 0x4 || got.IPID2 != 0xCD || got.IPID1 != 0xEF {
		t.Errorf("DecodeExt2 = %+v", got)
	}
}

func TestExt3RoundTripAllFields(t *testing.T) {
	f := Ext3Fields{
		Mode:            true,
		SNPresent:       true,
		SN:              0x1234,
		IPIDPresent:     true,
		IPID:            0xABCD,
		RND:             true,
		TTLPresent:      true,
		TTL:             64,
		DF:              true,
		ChecksumPresent: true,
		Checksum:        0xBEEF,
	}
	wire, err := EncodeExt3(f)
	if err != nil {
		t.Fatalf("EncodeExt3: %v", err)
	}
	got, consumed, err := DecodeExt3(wire)
	if err != nil {
		t.Fatalf("DecodeExt3: %v", err)
	}
	if consumed != len(wire) {
		t.Errorf("consumed = %d, want %d", consumed, len(wire))
	}
	if got != f {
		t.Errorf("DecodeExt3 = %+v, want %+v", got, f)
	}
}

func TestExt3RoundTripNoFields(t *testing.T) {
	f := Ext3Fields{Mode: false}
	wire, err := EncodeExt3(f)
	if err != nil {
		t.Fatalf("EncodeExt3: %v", err)
	}
	if len(wire) != 1 {
		t.Fatalf("EXT-3 with no present fields should be 1 byte, got %d", len(wire))
	}
	got, consumed, err := DecodeExt3(wire)
	if err != nil {
		t.Fatalf("DecodeExt3: %v", err)
	}
	if consumed != 1 || got != f {
		t.Errorf("DecodeExt3 = %+v consumed=%d", got, consumed)
	}
}
