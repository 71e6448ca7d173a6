package decompressor

import (
	"fmt"

	"github.com/runZeroInc/rohc/internal/roherr"
	"github.com/runZeroInc/rohc/pkg/crc"
	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/profile"
	"github.com/runZeroInc/rohc/pkg/rctx"
	"github.com/runZeroInc/rohc/pkg/wlsb"
)

// crcFields computes the small-packet CRC over SN and the outer IP-ID,
// the same layout pkg/compressor's crcForSN uses on the encode side.
func crcFields(sn, ipid uint16, p crc.Poly) uint8 {
	buf := []byte{byte(sn >> 8), byte(sn), byte(ipid >> 8), byte(ipid)}
	return crc.Compute(p, buf)
}

// headersFromContext rebuilds the Headers a context's last-confirmed
// fields describe, for decode paths (UO-*, IR-DYN) that only refresh a
// subset of the dynamic chain and so need the rest copied forward.
func headersFromContext(ctx *rctx.Context) profile.Headers {
	h := profile.Headers{
		Outer: &packet.IPv4Header{
			Version:  ctx.Outer.Version,
			Protocol: ctx.Outer.Protocol,
			Src:      ctx.Outer.Src,
			Dst:      ctx.Outer.Dst,
			TOS:      ctx.Outer.TOS,
			TTL:      ctx.Outer.TTL,
			DF:       ctx.Outer.DF,
			ID:       ctx.Outer.IPID,
		},
	}
	if ctx.HasUDP {
		h.UDP = &packet.UDPHeader{Source: ctx.UDP.Source, Dest: ctx.UDP.Dest, Checksum: ctx.UDP.Check}
	}
	return h
}

func (d *Decompressor) decodeIR(cid uint16, typeByte byte, body []byte, now int64) (*Result, error) {
	if len(body) < 1 {
		return nil, fmt.Errorf("%w: IR body empty", roherr.ErrMalformedPacket)
	}
	profileID := uint16(body[0])
	p := d.profiles.Lookup(profileID)
	if p == nil {
		return nil, fmt.Errorf("%w: unknown profile %#x", roherr.ErrProfileMismatch, profileID)
	}
	hasDynamic := typeByte&0x01 != 0

	ir, err := packet.DecodeIR(body, hasDynamic, p.StaticLen, p.DynamicLen)
	if err != nil {
		if existing, ok := d.contexts[cid]; ok {
			onCRCFailure(existing, d.k1, d.k2)
		}
		return nil, err
	}

	h, _, err := p.ParseStatic(ir.StaticChain)
	if err != nil {
		return nil, err
	}
	ctx := p.NewContext(cid, d.mode, d.cfg, h)
	ctx.Touch(now)

	if hasDynamic {
		if _, err := p.ApplyDynamic(ctx, &h, ir.DynamicChain); err != nil {
			return nil, err
		}
	}
	ctx.SN = ir.SN
	ctx.SNWindow.Add(uint32(ctx.SN), uint32(ctx.SN))
	ctx.Outer.IPIDWindow.Add(uint32(ctx.SN), uint32(ctx.Outer.IPID))

	onIRAccepted(ctx)
	d.contexts[cid] = ctx

	return &Result{CID: cid, Outer: h.Outer, UDP: h.UDP, Payload: ir.Payload}, nil
}

func (d *Decompressor) decodeIRDYN(cid uint16, body []byte, now int64) (*Result, error) {
	ctx, p, err := d.contextOrFail(cid)
	if err != nil {
		return nil, err
	}

	irdyn, err := packet.DecodeIRDYN(body, p.DynamicLen)
	if err != nil {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, err
	}
	if irdyn.ProfileID != ctx.ProfileID {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, fmt.Errorf("%w: IR-DYN profile %#x != context profile %#x", roherr.ErrProfileMismatch, irdyn.ProfileID, ctx.ProfileID)
	}

	h := headersFromContext(ctx)
	if _, err := p.ApplyDynamic(ctx, &h, irdyn.DynamicChain); err != nil {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, err
	}
	ctx.Touch(now)
	ctx.SN = irdyn.SN
	ctx.SNWindow.Add(uint32(ctx.SN), uint32(ctx.SN))
	ctx.Outer.IPIDWindow.Add(uint32(ctx.SN), uint32(ctx.Outer.IPID))
	onCRCSuccess(ctx)

	return &Result{CID: cid, Outer: h.Outer, UDP: h.UDP, Payload: irdyn.Payload}, nil
}

func (d *Decompressor) decodeUO0Packet(cid uint16, body []byte, now int64) (*Result, error) {
	ctx, _, err := d.contextOrFail(cid)
	if err != nil {
		return nil, err
	}
	if len(body) < 1 {
		return nil, fmt.Errorf("%w: UO-0 body empty", roherr.ErrMalformedPacket)
	}
	snBits, gotCRC, err := packet.DecodeUO0(body[0])
	if err != nil {
		return nil, err
	}

	decodedSN, err := wlsb.Decode(uint32(snBits), 4, uint32(ctx.SN), 16, wlsb.POffsetSN)
	if err != nil {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, err)
	}
	sn := uint16(decodedSN)
	ipid := ctx.Outer.IPID
	if crcFields(sn, ipid, crc.Poly3) != gotCRC {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, fmt.Errorf("%w: UO-0", roherr.ErrCrcMismatch)
	}

	ctx.Touch(now)
	ctx.SN = sn
	ctx.SNWindow.Add(uint32(sn), uint32(sn))
	ctx.Outer.IPIDWindow.Add(uint32(sn), uint32(ipid))
	onCRCSuccess(ctx)

	h := headersFromContext(ctx)
	return &Result{CID: cid, Outer: h.Outer, UDP: h.UDP, Payload: body[1:]}, nil
}

func (d *Decompressor) decodeUO1Packet(cid uint16, body []byte, now int64) (*Result, error) {
	ctx, _, err := d.contextOrFail(cid)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: UO-1 body shorter than 2 bytes", roherr.ErrMalformedPacket)
	}
	ipidBits, snBits, gotCRC, err := packet.DecodeUO1(body)
	if err != nil {
		return nil, err
	}

	decodedSN, err := wlsb.Decode(uint32(snBits), 5, uint32(ctx.SN), 16, wlsb.POffsetSN)
	if err != nil {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, err)
	}
	decodedIPID, err := wlsb.Decode(uint32(ipidBits), 6, uint32(ctx.Outer.IPID), 16, wlsb.POffsetIPIDSequential)
	if err != nil {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, err)
	}
	sn, ipid := uint16(decodedSN), uint16(decodedIPID)
	if crcFields(sn, ipid, crc.Poly3) != gotCRC {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, fmt.Errorf("%w: UO-1", roherr.ErrCrcMismatch)
	}

	ctx.Touch(now)
	ctx.SN = sn
	ctx.Outer.IPID = ipid
	ctx.SNWindow.Add(uint32(sn), uint32(sn))
	ctx.Outer.IPIDWindow.Add(uint32(sn), uint32(ipid))
	onCRCSuccess(ctx)

	h := headersFromContext(ctx)
	return &Result{CID: cid, Outer: h.Outer, UDP: h.UDP, Payload: body[2:]}, nil
}

func (d *Decompressor) decodeUO2Packet(cid uint16, body []byte, now int64) (*Result, error) {
	ctx, _, err := d.contextOrFail(cid)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: UO-2 body shorter than 2 bytes", roherr.ErrMalformedPacket)
	}
	snBitsBase, x, gotCRC, err := packet.DecodeUO2Base(body)
	if err != nil {
		return nil, err
	}

	var sn, ipid uint16
	var ttl uint8
	var df, rnd bool
	var checksum uint16
	var haveTTL, haveDF, haveRND, haveChecksum bool
	consumed := 2

	if !x {
		decodedSN, derr := wlsb.Decode(uint32(snBitsBase), 5, uint32(ctx.SN), 16, wlsb.POffsetSN)
		if derr != nil {
			onCRCFailure(ctx, d.k1, d.k2)
			return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, derr)
		}
		sn, ipid = uint16(decodedSN), ctx.Outer.IPID
	} else {
		if len(body) < 3 {
			return nil, fmt.Errorf("%w: UO-2 extension missing", roherr.ErrMalformedPacket)
		}
		switch packet.DecodeExtType(body[2]) {
		case packet.Ext0:
			f, derr := packet.DecodeExt0(body[2])
			if derr != nil {
				return nil, derr
			}
			consumed = 3
			snLSBs := uint32(f.SN)<<5 | uint32(snBitsBase)
			decodedSN, derr := wlsb.Decode(snLSBs, 8, uint32(ctx.SN), 16, wlsb.POffsetSN)
			if derr != nil {
				onCRCFailure(ctx, d.k1, d.k2)
				return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, derr)
			}
			decodedIPID, derr := wlsb.Decode(uint32(f.IPID), 3, uint32(ctx.Outer.IPID), 16, wlsb.POffsetIPIDSequential)
			if derr != nil {
				onCRCFailure(ctx, d.k1, d.k2)
				return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, derr)
			}
			sn, ipid = uint16(decodedSN), uint16(decodedIPID)

		case packet.Ext1:
			if len(body) < 4 {
				return nil, fmt.Errorf("%w: EXT-1 truncated", roherr.ErrMalformedPacket)
			}
			f, derr := packet.DecodeExt1(body[2:4])
			if derr != nil {
				return nil, derr
			}
			consumed = 4
			snLSBs := uint32(f.SN)<<5 | uint32(snBitsBase)
			decodedSN, derr := wlsb.Decode(snLSBs, 8, uint32(ctx.SN), 16, wlsb.POffsetSN)
			if derr != nil {
				onCRCFailure(ctx, d.k1, d.k2)
				return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, derr)
			}
			decodedIPID, derr := wlsb.Decode(uint32(f.IPID), 8, uint32(ctx.Outer.IPID), 16, wlsb.POffsetIPIDSequential)
			if derr != nil {
				onCRCFailure(ctx, d.k1, d.k2)
				return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, derr)
			}
			sn, ipid = uint16(decodedSN), uint16(decodedIPID)

		case packet.Ext2:
			if len(body) < 5 {
				return nil, fmt.Errorf("%w: EXT-2 truncated", roherr.ErrMalformedPacket)
			}
			f, derr := packet.DecodeExt2(body[2:5])
			if derr != nil {
				return nil, derr
			}
			consumed = 5
			snLSBs := uint32(f.SN)<<5 | uint32(snBitsBase)
			decodedSN, derr := wlsb.Decode(snLSBs, 8, uint32(ctx.SN), 16, wlsb.POffsetSN)
			if derr != nil {
				onCRCFailure(ctx, d.k1, d.k2)
				return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, derr)
			}
			decodedIPID, derr := wlsb.Decode(uint32(f.IPID2), 8, uint32(ctx.Outer.IPID), 16, wlsb.POffsetIPIDSequential)
			if derr != nil {
				onCRCFailure(ctx, d.k1, d.k2)
				return nil, fmt.Errorf("%w: %v", roherr.ErrCrcMismatch, derr)
			}
			sn, ipid = uint16(decodedSN), uint16(decodedIPID)

		case packet.Ext3:
			f, n, derr := packet.DecodeExt3(body[2:])
			if derr != nil {
				return nil, derr
			}
			consumed = 2 + n
			sn = ctx.SN
			if f.SNPresent {
				sn = f.SN
			}
			ipid = ctx.Outer.IPID
			if f.IPIDPresent {
				ipid = f.IPID
				rnd = f.RND
				haveRND = true
			}
			df = f.DF
			haveDF = true
			if f.TTLPresent {
				ttl = f.TTL
				haveTTL = true
			}
			if f.ChecksumPresent {
				checksum = f.Checksum
				haveChecksum = true
			}

		default:
			return nil, fmt.Errorf("%w: unknown UO-2 extension", roherr.ErrMalformedPacket)
		}
	}

	if crcFields(sn, ipid, crc.Poly7) != gotCRC {
		onCRCFailure(ctx, d.k1, d.k2)
		return nil, fmt.Errorf("%w: UO-2", roherr.ErrCrcMismatch)
	}

	ctx.Touch(now)
	ctx.SN = sn
	ctx.Outer.IPID = ipid
	if haveTTL {
		ctx.Outer.TTL = ttl
	}
	if haveDF {
		ctx.Outer.DF = df
	}
	if haveRND {
		ctx.Outer.RND = rnd
	}
	if haveChecksum && ctx.HasUDP {
		ctx.UDP.Check = checksum
	}
	ctx.SNWindow.Add(uint32(sn), uint32(sn))
	ctx.Outer.IPIDWindow.Add(uint32(sn), uint32(ipid))
	onCRCSuccess(ctx)

	h := headersFromContext(ctx)
	return &Result{CID: cid, Outer: h.Outer, UDP: h.UDP, Payload: body[consumed:]}, nil
}
