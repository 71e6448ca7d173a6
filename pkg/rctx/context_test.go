package rctx

import "testing"

func TestNewContextDefaults(t *testing.T) {
	cfg := DefaultConfig()
	ctx := NewContext(5, 0x0002, UMode, cfg, false, true)
	if ctx.CompState != CompIR {
		t.Fatalf("expected initial CompState IR, got %v", ctx.CompState)
	}
	if ctx.DecompState != DecompNC {
		t.Fatalf("expected initial DecompState NC, got %v", ctx.DecompState)
	}
	if ctx.SNWindow == nil || ctx.Outer.IPIDWindow == nil {
		t.Fatal("expected windows to be allocated")
	}
	if ctx.HasInner {
		t.Fatal("expected HasInner false")
	}
}

func TestBumpOrReset(t *testing.T) {
	if got := BumpOrReset(5, true); got != 0 {
		t.Fatalf("expected reset to 0, got %d", got)
	}
	if got := BumpOrReset(5, false); got != 6 {
		t.Fatalf("expected increment to 6, got %d", got)
	}
	if got := BumpOrReset(MaxFOCountCap, false); got != MaxFOCountCap {
		t.Fatalf("expected cap at %d, got %d", MaxFOCountCap, got)
	}
}

func TestTouchSetsFirstUsedOnce(t *testing.T) {
	ctx := NewContext(1, 0x0004, OMode, DefaultConfig(), false, false)
	ctx.Touch(100)
	ctx.Touch(200)
	if ctx.FirstUsed != 100 {
		t.Fatalf("expected FirstUsed to stick at 100, got %d", ctx.FirstUsed)
	}
	if ctx.LatestUsed != 200 {
		t.Fatalf("expected LatestUsed updated to 200, got %d", ctx.LatestUsed)
	}
}

func TestModeAndStateStringers(t *testing.T) {
	if UMode.String() != "U" || OMode.String() != "O" || RMode.String() != "R" {
		t.Fatal("mode stringer mismatch")
	}
	if CompIR.String() != "IR" || CompFO.String() != "FO" || CompSO.String() != "SO" {
		t.Fatal("compressor state stringer mismatch")
	}
	if DecompNC.String() != "NC" || DecompSC.String() != "SC" || DecompFC.String() != "FC" {
		t.Fatal("decompressor state stringer mismatch")
	}
}
