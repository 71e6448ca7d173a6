package crc

// ZeroedCopy returns a copy of packet with the byte at crcFieldOffset
// replaced by 0, as required when computing the CRC-over-the-packet for
// IR and IR-DYN (the CRC field itself must read as zero while the CRC
// that covers the whole packet is computed).
func ZeroedCopy(packet []byte, crcFieldOffset int) []byte {
	out := make([]byte, len(packet))
	copy(out, packet)
	if crcFieldOffset >= 0 && crcFieldOffset < len(out) {
		out[crcFieldOffset] = 0
	}
	return out
}
