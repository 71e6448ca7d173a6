// Package wlsb implements the W-LSB (Window-based Least Significant Bits)
// encoding engine that every ROHC packet format is built on (RFC 3095
// §4.5.1). A window tracks the last few values the compressor has sent
// for a field (SN, IP-ID delta, ...); get_k computes the minimum number
// of LSBs that still decode unambiguously against every value still in
// the window, and ack() trims the window as the peer confirms receipt.
package wlsb

import "fmt"

// DefaultWidth is C_WINDOW_WIDTH, the window's default capacity.
const DefaultWidth = 4

// entry is one reference value sent at a given master sequence number.
type entry struct {
	sn    uint32
	value uint32
}

// Window is a small ring buffer of recently-sent reference values for one
// field, plus the logic to compute and invert W-LSB encodings against it.
type Window struct {
	width int
	bits  uint // field width in bits (16 for SN and IP-ID)
	p     OffsetFunc
	ring  []entry
}

// OffsetFunc computes p(k), the RFC 3095 §4.5.1 offset parameter, which
// shapes the interpretation interval around a reference value. Different
// fields use different offset functions (p = -1 for SN; p = 0 for
// sequential IP-ID deltas).
type OffsetFunc func(k uint) int64

// POffsetSN is the offset function for the ROHC sequence number: p(k) = -1
// for all k (RFC 3095 §4.5.1, "SN" row of the interpretation table).
func POffsetSN(k uint) int64 { return -1 }

// POffsetIPIDSequential is the offset function for an IP-ID delta known to
// be in sequential NBO behavior: p(k) = 0.
func POffsetIPIDSequential(k uint) int64 { return 0 }

// NewWindow creates a window of the given width (entries retained) and
// bit-width (field size), using p as its offset function. width <= 0
// defaults to DefaultWidth.
func NewWindow(width int, bits uint, p OffsetFunc) *Window {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Window{width: width, bits: bits, p: p}
}

// mask wraps a value into the field's bit width (modulo 2^bits).
func (w *Window) mask(v int64) uint32 {
	m := uint64(1)<<w.bits - 1
	return uint32(uint64(v) & m)
}

// Add appends a newly-sent reference value at master sequence number sn,
// evicting the oldest entry if the window is already full.
func (w *Window) Add(sn uint32, value uint32) {
	w.ring = append(w.ring, entry{sn: sn, value: value & uint32(uint64(1)<<w.bits-1)})
	if len(w.ring) > w.width {
		w.ring = w.ring[1:]
	}
}

// Ack removes every reference whose sn is <= the acknowledged sn,
// matching RFC 3095's "the compressor may forget reference values the
// decompressor has confirmed it no longer needs" semantics.
func (w *Window) Ack(sn uint32) {
	kept := w.ring[:0]
	for _, e := range w.ring {
		if !sequenceLE(e.sn, sn, w.bits) {
			kept = append(kept, e)
		}
	}
	w.ring = kept
}

// sequenceLE reports whether a <= b modulo 2^bits, using the smaller of
// the two possible wraparound distances (consistent with how SNs are
// compared elsewhere in the codec).
func sequenceLE(a, b uint32, bits uint) bool {
	mod := uint32(1) << bits
	diff := (b - a) % mod
	return diff < mod/2 || a == b
}

// Len reports the number of reference values currently tracked.
func (w *Window) Len() int { return len(w.ring) }

// Reset empties the window, e.g. on a context's return to the IR state.
func (w *Window) Reset() { w.ring = nil }

// GetK returns the minimum k in [0, bits] such that value, encoded in its
// low k bits, decodes unambiguously against every reference value still
// in the window. If the window is empty, GetK returns the field's full
// bit width (nothing to compare against, so nothing can be elided).
func (w *Window) GetK(value uint32) uint {
	if len(w.ring) == 0 {
		return w.bits
	}
	for k := uint(0); k <= w.bits; k++ {
		if w.fitsAll(value, k) {
			return k
		}
	}
	return w.bits
}

// fitsAll reports whether value falls inside f(v_ref, k) for every
// reference value currently in the window.
func (w *Window) fitsAll(value uint32, k uint) bool {
	for _, e := range w.ring {
		lo, hi := Interval(e.value, k, w.bits, w.p)
		if !inInterval(value, lo, hi, w.bits) {
			return false
		}
	}
	return true
}

// Interval computes f(v_ref, k) = [v_ref - p(k), v_ref + 2^k - 1 - p(k)]
// modulo 2^bits, returning the bounds as signed offsets from v_ref so the
// caller can test membership with wraparound.
func Interval(vRef uint32, k, bits uint, p OffsetFunc) (lo, hi int64) {
	offset := p(k)
	span := int64(1)<<k - 1
	lo = int64(vRef) - offset
	hi = int64(vRef) + span - offset
	return lo, hi
}

// inInterval reports whether value lies in [lo, hi] modulo 2^bits,
// treating the interval as possibly wrapping around the field's range.
func inInterval(value uint32, lo, hi int64, bits uint) bool {
	mod := int64(1) << bits
	v := int64(value)
	// Normalize lo/hi into [0, mod) then walk the (possibly wrapping)
	// interval by shifting v into every congruent position.
	for _, shift := range []int64{-mod, 0, mod} {
		vs := v + shift
		if vs >= lo && vs <= hi {
			return true
		}
	}
	return false
}

// Decode is the decompressor's inverse of GetK/encoding: given k bits of
// LSBs and a reference value vRef, it returns the unique value v in
// f(vRef, k) whose low k bits equal lsbs.
//
// Since the interpretation interval f(vRef, k) spans exactly 2^k values,
// there is exactly one integer in it congruent to lsbs modulo 2^k; that
// integer is computed directly and then reduced into the field's range.
func Decode(lsbs uint32, k uint, vRef uint32, bits uint, p OffsetFunc) (uint32, error) {
	if k > bits {
		return 0, fmt.Errorf("wlsb: k=%d exceeds field width %d", k, bits)
	}
	if k == bits {
		return lsbs & uint32(uint64(1)<<bits-1), nil
	}
	lo, hi := Interval(vRef, k, bits, p)
	span := int64(1) << k
	q := lo + (((int64(lsbs) - lo) % span) + span) % span
	if q < lo || q > hi {
		return 0, fmt.Errorf("wlsb: lsbs=%#x at k=%d has no candidate in [%d,%d]", lsbs, k, lo, hi)
	}
	fieldMod := int64(1) << bits
	v := ((q % fieldMod) + fieldMod) % fieldMod
	return uint32(v), nil
}
