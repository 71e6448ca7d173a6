package ipid

import "testing"

func TestClassifySequentialNBO(t *testing.T) {
	c := NewClassifier()
	b, v := c.Classify(100, 103)
	if b != SequentialNBO {
		t.Fatalf("got %v, want SequentialNBO", b)
	}
	if v != 103 {
		t.Fatalf("got value %d, want 103", v)
	}
}

func TestClassifyRandom(t *testing.T) {
	c := NewClassifier()
	b, _ := c.Classify(100, 40000)
	if b != Random {
		t.Fatalf("got %v, want Random", b)
	}
}

func TestClassifyZero(t *testing.T) {
	c := NewClassifier()
	b, _ := c.Classify(0, 0)
	if b != Zero {
		t.Fatalf("got %v, want Zero", b)
	}
}

func TestClassifyByteSwapped(t *testing.T) {
	c := NewClassifier()
	// NBO delta here is 0x0100 (256), far too large; swapping bytes
	// first gives a delta of 1, so this is SequentialSwapped.
	b, _ := c.Classify(0x0001, 0x0101)
	if b != SequentialSwapped {
		t.Fatalf("got %v, want SequentialSwapped", b)
	}
}

func TestRNDNBOMapping(t *testing.T) {
	tests := []struct {
		b        Behavior
		rnd, nbo bool
	}{
		{SequentialNBO, false, true},
		{SequentialSwapped, false, false},
		{Zero, false, true},
		{Random, true, false},
	}
	for _, tt := range tests {
		rnd, nbo := RNDNBO(tt.b)
		if rnd != tt.rnd || nbo != tt.nbo {
			t.Errorf("RNDNBO(%v) = (%v,%v), want (%v,%v)", tt.b, rnd, nbo, tt.rnd, tt.nbo)
		}
	}
}

func TestCustomMaxDelta(t *testing.T) {
	c := &Classifier{MaxDelta: 2}
	b, _ := c.Classify(100, 105)
	if b == SequentialNBO {
		t.Fatalf("delta of 5 should exceed MaxDelta of 2")
	}
}
