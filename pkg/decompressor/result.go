package decompressor

import "github.com/runZeroInc/rohc/pkg/packet"

// Result is the reconstructed header/payload pair a successful
// Decompress call produces: the decompressor's job is to reproduce,
// bit-for-bit, the header the compressor started from.
type Result struct {
	CID     uint16
	Outer   *packet.IPv4Header
	UDP     *packet.UDPHeader
	Payload []byte
}
