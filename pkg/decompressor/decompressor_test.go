package decompressor

import (
	"net"
	"testing"

	"github.com/runZeroInc/rohc/pkg/compressor"
	"github.com/runZeroInc/rohc/pkg/feedback"
	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/profile"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

func headersAt(id uint16) profile.Headers {
	return profile.Headers{
		Outer: &packet.IPv4Header{
			Version:  4,
			ID:       id,
			DF:       true,
			TTL:      64,
			Protocol: 17,
			Src:      net.IPv4(10, 0, 0, 1),
			Dst:      net.IPv4(10, 0, 0, 2),
		},
		UDP: &packet.UDPHeader{Source: 1000, Dest: 2000, Checksum: 0xBEEF},
	}
}

func TestDecompressIRRoundTrip(t *testing.T) {
	c := compressor.New(rctx.DefaultConfig(), rctx.OMode, false, profile.NewRegistry())
	d := New(rctx.DefaultConfig(), rctx.OMode, false, profile.NewRegistry())

	wire, err := c.Compress(1, headersAt(100), []byte("payload"), false, 1)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	res, err := d.Decompress(wire, 1)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if res.Outer.ID != 100 || res.Outer.Protocol != 17 || string(res.Payload) != "payload" {
		t.Errorf("IR decode mismatch: %+v payload=%q", res.Outer, res.Payload)
	}
	if res.UDP == nil || res.UDP.Source != 1000 || res.UDP.Checksum != 0xBEEF {
		t.Errorf("IR UDP decode mismatch: %+v", res.UDP)
	}
	if ctx := d.Context(1); ctx.DecompState != rctx.DecompFC {
		t.Errorf("decompressor state after IR = %v, want FC", ctx.DecompState)
	}
}

func TestDecompressFullStreamReachesSO(t *testing.T) {
	cfg := rctx.DefaultConfig()
	cfg.MaxIRCount = 1
	cfg.MaxFOCount = 1
	c := compressor.New(cfg, rctx.OMode, false, profile.NewRegistry())
	d := New(cfg, rctx.OMode, false, profile.NewRegistry())

	for i := uint16(0); i < 6; i++ {
		wire, err := c.Compress(1, headersAt(100+i), nil, false, int64(i)+1)
		if err != nil {
			t.Fatalf("Compress iter %d: %v", i, err)
		}
		res, err := d.Decompress(wire, int64(i)+1)
		if err != nil {
			t.Fatalf("Decompress iter %d: %v", i, err)
		}
		if res.Outer.ID != 100+i {
			t.Errorf("iter %d: decoded ID = %d, want %d", i, res.Outer.ID, 100+i)
		}
	}
	ctx := d.Context(1)
	if ctx.DecompState != rctx.DecompFC {
		t.Errorf("decompressor state = %v, want FC", ctx.DecompState)
	}
}

func TestDecompressUnknownCIDBeforeIR(t *testing.T) {
	d := New(rctx.DefaultConfig(), rctx.OMode, false, profile.NewRegistry())
	wire, _ := packet.EncodeUO0(5, 1, 2, false)
	if _, err := d.Decompress(wire, 1); err == nil {
		t.Error("Decompress of UO-0 before any IR should fail")
	}
}

func TestDecompressIRDYNRefreshesDynamicChain(t *testing.T) {
	cfg := rctx.DefaultConfig()
	cfg.MaxIRCount = 1
	c := compressor.New(cfg, rctx.OMode, false, profile.NewRegistry())
	d := New(cfg, rctx.OMode, false, profile.NewRegistry())

	wire1, err := c.Compress(1, headersAt(100), nil, false, 1)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := d.Decompress(wire1, 1); err != nil {
		t.Fatalf("Decompress IR: %v", err)
	}

	h2 := headersAt(101)
	h2.Outer.TTL = 32
	wire2, err := c.Compress(1, h2, nil, false, 2)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	_, typeByte, _, err := packet.ParseHeader(wire2, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if packet.DetectType(typeByte) != packet.TypeIRDYN {
		t.Fatalf("second packet should be IR-DYN while in FO, got %v", packet.DetectType(typeByte))
	}

	res, err := d.Decompress(wire2, 2)
	if err != nil {
		t.Fatalf("Decompress IR-DYN: %v", err)
	}
	if res.Outer.TTL != 32 || res.Outer.ID != 101 {
		t.Errorf("IR-DYN decode mismatch: %+v", res.Outer)
	}
}

func TestDecompressUO2HandlesLargeIPIDDrift(t *testing.T) {
	cfg := rctx.DefaultConfig()
	cfg.MaxIRCount = 1
	cfg.MaxFOCount = 1
	c := compressor.New(cfg, rctx.OMode, false, profile.NewRegistry())
	d := New(cfg, rctx.OMode, false, profile.NewRegistry())

	// Sequential jumps just under IPIDMaxDelta stay classified as
	// sequential NBO (not random), but the accumulated drift across the
	// W-LSB window's 4 entries eventually needs more bits than UO-1
	// carries, forcing UO-2 with a wider extension.
	id := uint16(100)
	for i := uint16(0); i < 8; i++ {
		id += 18
		wire, err := c.Compress(1, headersAt(id), nil, false, int64(i)+1)
		if err != nil {
			t.Fatalf("Compress iter %d: %v", i, err)
		}
		res, err := d.Decompress(wire, int64(i)+1)
		if err != nil {
			t.Fatalf("Decompress iter %d: %v", i, err)
		}
		if res.Outer.ID != id {
			t.Errorf("iter %d: decoded ID = %d, want %d", i, res.Outer.ID, id)
		}
	}
}

func TestBuildFeedbackUModeNone(t *testing.T) {
	ctx := rctx.NewContext(1, profile.IDIPOnly, rctx.UMode, rctx.DefaultConfig(), false, false)
	if _, ok := BuildFeedback(ctx, nil); ok {
		t.Error("U-mode context should never generate feedback")
	}
}

func TestBuildFeedbackACKOnSuccess(t *testing.T) {
	ctx := rctx.NewContext(1, profile.IDIPOnly, rctx.OMode, rctx.DefaultConfig(), false, false)
	fb, ok := BuildFeedback(ctx, nil)
	if !ok || fb.Code != feedback.CodeACK {
		t.Errorf("BuildFeedback(nil err) = %+v, %v, want ACK", fb, ok)
	}
}
