// Command rohc-pipe demonstrates a round trip through the compressor
// and decompressor over a loopback connection: one goroutine writes
// synthetic IPv4/UDP datagrams through a Conn, the other reads them
// back through its peer Conn, and both sides log their running stats.
// A minimal, runnable consumer of the library rather than a test.
package main

import (
	"encoding/binary"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/runZeroInc/rohc"
	"github.com/sirupsen/logrus"
)

func main() {
	count := 20
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil {
			logrus.Fatalf("invalid packet count %q: %v", os.Args[1], err)
		}
		count = n
	}

	client, server := net.Pipe()
	comp := rohc.NewCompressor(rohc.DefaultConfig(), rohc.OMode, false)
	decomp := rohc.NewDecompressor(rohc.DefaultConfig(), rohc.OMode, false)

	cConn := rohc.WrapConn(client, comp, nil, 1, false, reportStats)
	sConn := rohc.WrapConn(server, nil, decomp, 1, false, reportStats)

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 65535)
		for i := 0; i < count; i++ {
			n, err := sConn.Read(buf)
			if err != nil {
				logrus.Errorf("read packet %d: %v", i, err)
				return
			}
			logrus.Debugf("decompressed packet %d: %d bytes", i, n)
		}
	}()

	for i := 0; i < count; i++ {
		pkt := buildPacket(uint16(100+i), []byte("hello rohc"))
		if _, err := cConn.Write(pkt); err != nil {
			logrus.Fatalf("write packet %d: %v", i, err)
		}
	}
	<-done

	_ = cConn.Close()
	_ = sConn.Close()
	time.Sleep(10 * time.Millisecond)
}

// buildPacket assembles a minimal IPv4+UDP datagram carrying payload,
// with IP-ID id and a fixed 10.0.0.1 -> 10.0.0.2 / 1000 -> 2000 flow.
func buildPacket(id uint16, payload []byte) []byte {
	udp := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint16(udp[0:2], 1000)
	binary.BigEndian.PutUint16(udp[2:4], 2000)
	binary.BigEndian.PutUint16(udp[4:6], uint16(len(udp)))
	binary.BigEndian.PutUint16(udp[6:8], 0xBEEF)
	copy(udp[8:], payload)

	out := make([]byte, 20+len(udp))
	out[0] = 0x45
	binary.BigEndian.PutUint16(out[2:4], uint16(len(out)))
	binary.BigEndian.PutUint16(out[4:6], id)
	out[6] = 0x40 // DF
	out[8] = 64   // TTL
	out[9] = 17   // UDP
	copy(out[12:16], net.IPv4(10, 0, 0, 1).To4())
	copy(out[16:20], net.IPv4(10, 0, 0, 2).To4())
	copy(out[20:], udp)
	return out
}

func reportStats(c *rohc.Conn, state int) {
	logrus.WithFields(logrus.Fields{
		"state":            rohc.StateMap[state],
		"txBytes":          c.TxBytes,
		"rxBytes":          c.RxBytes,
		"txWireBytes":      c.TxWireBytes,
		"rxWireBytes":      c.RxWireBytes,
		"compressionRatio": c.CompressionRatio(),
		"warnings":         c.Warnings(),
	}).Info("rohc conn stats")
}
