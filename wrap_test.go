package rohc

import (
	"net"
	"testing"
)

func TestConnWriteReadRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	comp := NewCompressor(DefaultConfig(), OMode, false)
	decomp := NewDecompressor(DefaultConfig(), OMode, false)

	cConn := WrapConn(client, comp, nil, 7, false, nil)
	sConn := WrapConn(server, nil, decomp, 7, false, nil)

	raw := rawIPv4UDP(t, 100, []byte("payload"))

	done := make(chan error, 1)
	go func() {
		_, err := cConn.Write(raw)
		done <- err
	}()

	buf := make([]byte, 2048)
	n, err := sConn.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := buf[:n]
	if len(got) < 20 {
		t.Fatalf("reconstructed datagram too short: %d bytes", len(got))
	}
	if cConn.TxBytes != int64(len(raw)) {
		t.Errorf("TxBytes = %d, want %d", cConn.TxBytes, len(raw))
	}
	if sConn.RxBytes == 0 {
		t.Errorf("RxBytes not tracked")
	}
	if cConn.TxWireBytes == 0 || cConn.TxWireBytes >= cConn.TxBytes {
		t.Errorf("expected compression, TxWireBytes=%d TxBytes=%d", cConn.TxWireBytes, cConn.TxBytes)
	}
}

// rawIPv4UDP builds a raw IPv4+UDP datagram by hand (no net/ip stack
// dependency), matching the wire shape Conn.Write expects.
func rawIPv4UDP(t *testing.T, id uint16, payload []byte) []byte {
	t.Helper()
	udp := make([]byte, 8+len(payload))
	udp[0], udp[1] = 0x03, 0xE8 // source 1000
	udp[2], udp[3] = 0x07, 0xD0 // dest 2000
	length := uint16(8 + len(payload))
	udp[4], udp[5] = byte(length>>8), byte(length)
	udp[6], udp[7] = 0xBE, 0xEF // checksum
	copy(udp[8:], payload)

	out := make([]byte, 20+len(udp))
	out[0] = 0x45 // version 4, IHL 5
	out[1] = 0
	totalLen := uint16(20 + len(udp))
	out[2], out[3] = byte(totalLen>>8), byte(totalLen)
	out[4], out[5] = byte(id>>8), byte(id)
	out[6], out[7] = 0x40, 0x00 // DF set
	out[8] = 64                 // TTL
	out[9] = 17                 // UDP
	out[12], out[13], out[14], out[15] = 10, 0, 0, 1
	out[16], out[17], out[18], out[19] = 10, 0, 0, 2
	copy(out[20:], udp)
	return out
}

func TestConnWarningsAndToMap(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()
	comp := NewCompressor(DefaultConfig(), OMode, false)
	c := WrapConn(client, comp, nil, 1, false, nil)
	c.SetReconnects(2)
	warns := c.Warnings()
	if len(warns) != 1 || warns[0] != "reconnects=2" {
		t.Errorf("Warnings() = %v", warns)
	}
	m := c.ToMap()
	if m["reconnects"] != 2 {
		t.Errorf("ToMap()[reconnects] = %v, want 2", m["reconnects"])
	}
	if c.InstanceID == "" {
		t.Error("InstanceID should be assigned by WrapConn")
	}
	if m["instanceId"] != c.InstanceID {
		t.Errorf("ToMap()[instanceId] = %v, want %v", m["instanceId"], c.InstanceID)
	}
}
