package rohc

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/runZeroInc/rohc/pkg/packet"
	"github.com/runZeroInc/rohc/pkg/profile"
)

// States a Conn reports through.
const (
	Opened = 0
	Closed = 1
)

var StateMap = map[int]string{
	Opened: "open",
	Closed: "close",
}

// ReportStatsFn is invoked on open, on close, and is the hook an
// application uses to push Conn's running stats to its own metrics or
// logging.
type ReportStatsFn func(c *Conn, state int)

// Conn wraps a net.Conn that carries whole IPv4 datagrams -- a raw
// socket, a TUN device, or a UDP tunnel -- compressing every Write
// through a Compressor and decompressing every Read through a
// Decompressor, all bound to a single CID. It tracks
// uncompressed-vs-wire byte counts on every packet, since that ratio is
// the quantity a ROHC deployment actually cares about.
type Conn struct {
	net.Conn `json:"-"`
	Context  context.Context `json:"-"`

	// InstanceID disambiguates multiple Conns sharing the same CID
	// across reconnects, for use as a per-connection Prometheus label.
	InstanceID string `json:"instanceId"`

	comp    *Compressor
	decomp  *Decompressor
	cid     uint16
	udpLite bool

	reportStats func(*Conn, int) `json:"-"`
	OpenedAt    int64            `json:"openedAt,omitempty"`
	ClosedAt    int64            `json:"closedAt,omitempty"`
	FirstTxAt   int64            `json:"firstTxAt,omitempty"`
	FirstRxAt   int64            `json:"firstRxAt,omitempty"`
	LastTxAt    int64            `json:"lastTxAt,omitempty"`
	LastRxAt    int64            `json:"lastRxAt,omitempty"`

	TxBytes     int64 `json:"txBytes"`     // uncompressed bytes handed to Write
	RxBytes     int64 `json:"rxBytes"`     // uncompressed bytes handed back from Read
	TxWireBytes int64 `json:"txWireBytes"` // compressed bytes actually written to the wire
	RxWireBytes int64 `json:"rxWireBytes"` // compressed bytes actually read off the wire

	TxErr      error `json:"txErr,omitempty"`
	RxErr      error `json:"rxErr,omitempty"`
	Reconnects int   `json:"reconnects,omitempty"`
}

// WrapConn wraps ncon for CID cid, compressing outgoing packets with
// comp and decompressing incoming ones with decomp. udpLite selects
// UDP-Lite over UDP for new contexts this Conn's Write establishes.
func WrapConn(ncon net.Conn, comp *Compressor, decomp *Decompressor, cid uint16, udpLite bool, reportStatsFn ReportStatsFn) *Conn {
	return WrapConnWithContext(context.Background(), ncon, comp, decomp, cid, udpLite, reportStatsFn)
}

// WrapConnWithContext is WrapConn with an explicit context, stored on
// the returned Conn for the caller's own cancellation/tracing use.
func WrapConnWithContext(ctx context.Context, ncon net.Conn, comp *Compressor, decomp *Decompressor, cid uint16, udpLite bool, reportStatsFn ReportStatsFn) *Conn {
	w := &Conn{
		Conn:        ncon,
		Context:     ctx,
		InstanceID:  xid.New().String(),
		comp:        comp,
		decomp:      decomp,
		cid:         cid,
		udpLite:     udpLite,
		reportStats: reportStatsFn,
		OpenedAt:    time.Now().UnixNano(),
	}
	w.report(Opened)
	return w
}

func (w *Conn) report(state int) {
	if w.reportStats != nil {
		w.reportStats(w, state)
	}
}

// SetReconnects stores the number of additional connection attempts
// needed to open this connection, managed externally by the caller.
func (w *Conn) SetReconnects(reconnects int) {
	w.Reconnects = reconnects
}

// Close reports a Closed event before closing the underlying conn.
func (w *Conn) Close() error {
	w.ClosedAt = time.Now().UnixNano()
	w.report(Closed)
	return w.Conn.Close()
}

// Write parses b as a raw IPv4 datagram (IPv4 header, optional UDP
// header, payload), compresses it against this Conn's context, and
// writes the resulting ROHC packet to the underlying conn. n on
// success is len(b), matching io.Writer's contract for the caller's
// uncompressed view even though fewer wire bytes were sent.
func (w *Conn) Write(b []byte) (int, error) {
	outer, rest, err := packet.ParseIPv4(b)
	if err != nil {
		w.TxErr = err
		return 0, err
	}
	h := profile.Headers{Outer: outer}
	payload := rest
	if outer.Protocol == 17 {
		udp, body, err := packet.ParseUDP(rest)
		if err != nil {
			w.TxErr = err
			return 0, err
		}
		h.UDP = udp
		payload = body
	}

	wire, err := w.comp.Compress(w.cid, h, payload, w.udpLite, time.Now().UnixNano())
	if err != nil {
		w.TxErr = err
		return 0, err
	}
	n, err := w.Conn.Write(wire)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && !nerr.Timeout() {
			w.TxErr = err
		}
		return 0, err
	}
	w.TxWireBytes += int64(n)
	ts := time.Now().UnixNano()
	if w.FirstTxAt == 0 {
		w.FirstTxAt = ts
	}
	w.LastTxAt = ts
	w.TxBytes += int64(len(b))
	return len(b), nil
}

// Read reads one ROHC packet off the underlying conn, decompresses it,
// and copies the reconstructed IPv4 (+ UDP) datagram into b. It
// returns io.ErrShortBuffer if b is too small for the reconstructed
// datagram, the same contract net.PacketConn.ReadFrom gives callers
// for oversized UDP reads.
func (w *Conn) Read(b []byte) (int, error) {
	wire := make([]byte, 65535)
	n, err := w.Conn.Read(wire)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && !nerr.Timeout() {
			w.RxErr = err
		}
		return 0, err
	}
	w.RxWireBytes += int64(n)

	res, err := w.decomp.Decompress(wire[:n], time.Now().UnixNano())
	if err != nil {
		w.RxErr = err
		return 0, err
	}

	var raw []byte
	if res.UDP != nil {
		raw = res.Outer.Marshal(res.UDP.Marshal(res.Payload))
	} else {
		raw = res.Outer.Marshal(res.Payload)
	}
	if len(raw) > len(b) {
		return 0, io.ErrShortBuffer
	}
	copy(b, raw)

	ts := time.Now().UnixNano()
	if w.FirstRxAt == 0 {
		w.FirstRxAt = ts
	}
	w.LastRxAt = ts
	w.RxBytes += int64(len(raw))
	return len(raw), nil
}

// CompressionRatio returns TxWireBytes / TxBytes, 0 if nothing has
// been written yet. Values below 1 mean the wire saw fewer bytes than
// the uncompressed datagrams it carried.
func (w *Conn) CompressionRatio() float64 {
	if w.TxBytes == 0 {
		return 0
	}
	return float64(w.TxWireBytes) / float64(w.TxBytes)
}

// Warnings reports conditions worth a human's attention: reconnects
// and read/write errors recorded so far.
func (w *Conn) Warnings() []string {
	var warns []string
	if w.Reconnects > 0 {
		warns = append(warns, "reconnects="+strconv.Itoa(w.Reconnects))
	}
	if w.TxErr != nil {
		warns = append(warns, "txErr="+w.TxErr.Error())
	}
	if w.RxErr != nil {
		warns = append(warns, "rxErr="+w.RxErr.Error())
	}
	return warns
}

// ToMap renders Conn's stats for JSON logging or ad hoc reporting.
func (w *Conn) ToMap() map[string]any {
	fset := map[string]any{
		"cid":              w.cid,
		"instanceId":       w.InstanceID,
		"openedAt":         w.OpenedAt,
		"closedAt":         w.ClosedAt,
		"firstTxAt":        w.FirstTxAt,
		"firstRxAt":        w.FirstRxAt,
		"lastTxAt":         w.LastTxAt,
		"lastRxAt":         w.LastRxAt,
		"txBytes":          w.TxBytes,
		"rxBytes":          w.RxBytes,
		"txWireBytes":      w.TxWireBytes,
		"rxWireBytes":      w.RxWireBytes,
		"compressionRatio": w.CompressionRatio(),
		"reconnects":       w.Reconnects,
		"warnings":         w.Warnings(),
	}
	if w.TxErr != nil {
		fset["txErr"] = w.TxErr.Error()
	}
	if w.RxErr != nil {
		fset["rxErr"] = w.RxErr.Error()
	}
	return fset
}
