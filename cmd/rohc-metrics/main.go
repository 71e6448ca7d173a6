// Command rohc-metrics serves every live ROHC context's fields as
// Prometheus metrics over HTTP. It drives a compressor/decompressor
// pair over a net.Pipe so /metrics has something to show without a
// real socket.
package main

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/runZeroInc/rohc"
	"github.com/runZeroInc/rohc/pkg/metrics"
)

func main() {
	hostname, err := os.Hostname()
	if err != nil {
		logrus.Fatalf("hostname: %v", err)
	}

	comp := rohc.NewCompressor(rohc.DefaultConfig(), rohc.OMode, false)
	decomp := rohc.NewDecompressor(rohc.DefaultConfig(), rohc.OMode, false)

	compCollector := metrics.NewCollector(prometheus.Labels{"role": "compressor", "hostname": hostname})
	decompCollector := metrics.NewCollector(prometheus.Labels{"role": "decompressor", "hostname": hostname})
	prometheus.MustRegister(compCollector, decompCollector)

	driveTraffic(comp, decomp, compCollector, decompCollector)

	http.Handle("/metrics", promhttp.Handler())
	logrus.Info("serving /metrics on :18080")
	if err := http.ListenAndServe(":18080", nil); err != nil {
		logrus.Fatalf("listen: %v", err)
	}
}

// driveTraffic starts a background loop generating one packet per
// second through comp/decomp so the exposed contexts keep changing,
// tracking each newly seen CID with its collector.
func driveTraffic(comp *rohc.Compressor, decomp *rohc.Decompressor, compCollector, decompCollector *metrics.Collector) {
	client, server := net.Pipe()
	cConn := rohc.WrapConn(client, comp, nil, 1, false, nil)
	sConn := rohc.WrapConn(server, nil, decomp, 1, false, nil)

	go func() {
		buf := make([]byte, 65535)
		for {
			if _, err := sConn.Read(buf); err != nil {
				return
			}
		}
	}()

	go func() {
		tracked := false
		id := uint16(0)
		for {
			pkt := buildPacket(id)
			id++
			if _, err := cConn.Write(pkt); err != nil {
				logrus.Errorf("write: %v", err)
				return
			}
			if !tracked {
				compCollector.Track(comp.Context(1))
				decompCollector.Track(decomp.Context(1))
				tracked = true
			}
			time.Sleep(time.Second)
		}
	}()
}

func buildPacket(id uint16) []byte {
	payload := []byte("metrics-demo")
	udp := make([]byte, 8+len(payload))
	udp[0], udp[1] = 0x03, 0xE8
	udp[2], udp[3] = 0x07, 0xD0
	length := uint16(len(udp))
	udp[4], udp[5] = byte(length>>8), byte(length)
	udp[6], udp[7] = 0xBE, 0xEF
	copy(udp[8:], payload)

	out := make([]byte, 20+len(udp))
	out[0] = 0x45
	totalLen := uint16(len(out))
	out[2], out[3] = byte(totalLen>>8), byte(totalLen)
	out[4], out[5] = byte(id>>8), byte(id)
	out[6] = 0x40
	out[8] = 64
	out[9] = 17
	out[12], out[13], out[14], out[15] = 10, 0, 0, 1
	out[16], out[17], out[18], out[19] = 10, 0, 0, 2
	copy(out[20:], udp)
	return out
}
