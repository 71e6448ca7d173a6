package wlsb

import "testing"

func TestGetKDecodeRoundTripAgainstMostRecentRef(t *testing.T) {
	w := NewWindow(DefaultWidth, 16, POffsetSN)
	w.Add(0, 10)
	var sn uint32 = 11
	for i := 1; i < 20; i++ {
		k := w.GetK(sn)
		lsbs := sn & (uint32(1)<<k - 1)
		mostRecent := w.ring[w.Len()-1].value
		got, err := Decode(lsbs, k, mostRecent, 16, POffsetSN)
		if err != nil {
			t.Fatalf("step %d: Decode: %v", i, err)
		}
		if got != sn {
			t.Fatalf("step %d: got %d want %d (k=%d)", i, got, sn, k)
		}
		w.Add(uint32(i), sn)
		sn++
	}
}

func TestGetKAgainstEachReference(t *testing.T) {
	w := NewWindow(DefaultWidth, 16, POffsetSN)
	w.Add(0, 100)
	w.Add(1, 101)
	w.Add(2, 102)
	w.Add(3, 103)

	value := uint32(104)
	k := w.GetK(value)

	for _, e := range w.ring {
		lsbs := value & (uint32(1)<<k - 1)
		got, err := Decode(lsbs, k, e.value, 16, POffsetSN)
		if err != nil {
			t.Fatalf("decode against ref %d failed: %v", e.value, err)
		}
		if got != value {
			t.Fatalf("decode against ref %d: got %d want %d", e.value, got, value)
		}
	}

	// A k one smaller must fail to decode correctly against at least one
	// reference still in the window, unless there's only one reference.
	if k > 0 && w.Len() > 1 {
		smaller := k - 1
		ambiguous := false
		for _, e := range w.ring {
			lsbs := value & (uint32(1)<<smaller - 1)
			got, err := Decode(lsbs, smaller, e.value, 16, POffsetSN)
			if err != nil || got != value {
				ambiguous = true
			}
		}
		if !ambiguous {
			t.Fatalf("expected k-1=%d to be ambiguous against some reference", smaller)
		}
	}
}

func TestIPIDSequentialOffsetAllowsZeroK(t *testing.T) {
	w := NewWindow(DefaultWidth, 16, POffsetIPIDSequential)
	w.Add(0, 500)
	k := w.GetK(500)
	if k != 0 {
		t.Fatalf("expected k=0 when value == v_ref for p=0 offset, got %d", k)
	}
}

func TestAckTrimsWindow(t *testing.T) {
	w := NewWindow(DefaultWidth, 16, POffsetSN)
	w.Add(10, 1)
	w.Add(11, 2)
	w.Add(12, 3)
	w.Ack(11)
	if w.Len() != 1 {
		t.Fatalf("expected 1 entry left after ack, got %d", w.Len())
	}
	if w.ring[0].sn != 12 {
		t.Fatalf("expected remaining entry sn=12, got %d", w.ring[0].sn)
	}
}

func TestWindowWidthEviction(t *testing.T) {
	w := NewWindow(2, 16, POffsetSN)
	w.Add(0, 1)
	w.Add(1, 2)
	w.Add(2, 3)
	if w.Len() != 2 {
		t.Fatalf("expected width-capped length 2, got %d", w.Len())
	}
	if w.ring[0].value != 2 {
		t.Fatalf("expected oldest entry evicted, got ring[0]=%v", w.ring[0])
	}
}

func TestGetKEmptyWindowReturnsFullWidth(t *testing.T) {
	w := NewWindow(DefaultWidth, 16, POffsetSN)
	if k := w.GetK(42); k != 16 {
		t.Fatalf("expected full width for empty window, got %d", k)
	}
}

func TestDecodeRejectsOversizeK(t *testing.T) {
	if _, err := Decode(0, 17, 0, 16, POffsetSN); err == nil {
		t.Fatal("expected error for k > bits")
	}
}
