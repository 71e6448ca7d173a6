package bitio

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		read  func(r *Reader) error
	}{
		{
			name: "single bits",
			write: func(w *Writer) {
				w.WriteBit(1)
				w.WriteBit(0)
				w.WriteBit(1)
				w.WriteBit(1)
			},
			read: func(r *Reader) error {
				want := []uint8{1, 0, 1, 1}
				for i, w := range want {
					b, err := r.ReadBit()
					if err != nil {
						return err
					}
					if b != w {
						t.Fatalf("bit %d: got %d want %d", i, b, w)
					}
				}
				return nil
			},
		},
		{
			name: "mixed width fields like UO-0",
			write: func(w *Writer) {
				_ = w.WriteBits(0, 1)    // discriminator
				_ = w.WriteBits(5, 4)    // SN
				_ = w.WriteBits(3, 3)    // CRC
			},
			read: func(r *Reader) error {
				d, _ := r.ReadBits(1)
				sn, _ := r.ReadBits(4)
				crc, _ := r.ReadBits(3)
				if d != 0 || sn != 5 || crc != 3 {
					t.Fatalf("got d=%d sn=%d crc=%d", d, sn, crc)
				}
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			tt.write(w)
			r := NewReader(w.Bytes())
			if err := tt.read(r); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestWriterByteAlignment(t *testing.T) {
	w := NewWriter()
	_ = w.WriteBits(0b110, 3)
	if w.Aligned() {
		t.Fatal("expected writer to be unaligned after 3 bits")
	}
	if err := w.WriteByte(0xFF); err == nil {
		t.Fatal("expected error writing unaligned byte")
	}
	w.PadToByte()
	if !w.Aligned() {
		t.Fatal("expected writer to be aligned after padding")
	}
	if err := w.WriteByte(0xAB); err != nil {
		t.Fatal(err)
	}
	if got := w.Bytes(); !bytes.Equal(got, []byte{0b11000000, 0xAB}) {
		t.Fatalf("got %08b %08b", got[0], got[1])
	}
}

func TestReaderBytesRemainder(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04})
	b, err := r.ReadBytes(2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{0x01, 0x02}) {
		t.Fatalf("got %v", b)
	}
	rem, err := r.Remainder()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rem, []byte{0x03, 0x04}) {
		t.Fatalf("got %v", rem)
	}
	if r.BitsRemaining() != 0 {
		t.Fatalf("expected 0 bits remaining, got %d", r.BitsRemaining())
	}
}

func TestWriteBitsOverflow(t *testing.T) {
	w := NewWriter()
	if err := w.WriteBits(16, 4); err == nil {
		t.Fatal("expected overflow error for value 16 in 4 bits")
	}
}
