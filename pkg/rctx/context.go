// Package rctx models the ROHC per-context state: the compressor and
// decompressor state machines, per-header change tracking, and the
// three W-LSB windows a context carries. The tagged
// fields below (`rohc:"name=...,help='...'"`) let pkg/metrics describe
// each counter as a Prometheus metric by walking the struct via
// reflection instead of hand-listing every field twice.
package rctx

import (
	"net"

	"github.com/runZeroInc/rohc/pkg/wlsb"
)

// Mode is the ROHC operating mode.
type Mode int

const (
	UMode Mode = iota // Unidirectional
	OMode             // Bidirectional Optimistic
	RMode             // Bidirectional Reliable
)

func (m Mode) String() string {
	switch m {
	case UMode:
		return "U"
	case OMode:
		return "O"
	case RMode:
		return "R"
	default:
		return "unknown"
	}
}

// CompressorState is the compressor-side state machine.
type CompressorState int

const (
	CompIR CompressorState = iota
	CompFO
	CompSO
)

func (s CompressorState) String() string {
	switch s {
	case CompIR:
		return "IR"
	case CompFO:
		return "FO"
	case CompSO:
		return "SO"
	default:
		return "unknown"
	}
}

// DecompressorState is the decompressor-side state machine.
type DecompressorState int

const (
	DecompNC DecompressorState = iota
	DecompSC
	DecompFC
)

func (s DecompressorState) String() string {
	switch s {
	case DecompNC:
		return "NC"
	case DecompSC:
		return "SC"
	case DecompFC:
		return "FC"
	default:
		return "unknown"
	}
}

// Defaults for the context lifecycle tunables.
const (
	DefaultMaxIRCount        = 3
	DefaultMaxFOCount        = 3
	DefaultChangeToFOCount   = 15 // go_back_fo_count threshold, U-mode only
	DefaultChangeToIRCount   = 30 // go_back_ir_count threshold, U-mode only
	MaxFOCountCap            = 1 << 16
)

// IPHeaderInfo is the per-IP-header slice of a context: the last emitted
// or accepted header snapshot, its IP-ID behavior flags, and the "how
// many consecutive packets since this field last changed" counters that
// drive the compressor's state machine.
type IPHeaderInfo struct {
	Version  uint8  `rohc:"name=version,help='IP version nibble'"`
	Protocol uint8  `rohc:"name=protocol,help='Next-header protocol number'"`
	Src      net.IP `rohc:"name=src,help='Source address'"`
	Dst      net.IP `rohc:"name=dst,help='Destination address'"`

	TOS uint8 `rohc:"name=tos,help='Type of service'"`
	TTL uint8 `rohc:"name=ttl,help='Time to live'"`
	DF  bool  `rohc:"name=df,help='Dont-fragment flag'"`

	IPID uint16 `rohc:"name=ip_id,help='Identification field, last sent value'"`
	RND  bool   `rohc:"name=rnd,help='IP-ID behaves randomly'"`
	NBO  bool   `rohc:"name=nbo,help='IP-ID increases in network byte order'"`

	// IDDelta is id_delta = IP-ID - SN, stored as a two's-complement
	// 16-bit value.
	IDDelta int16 `rohc:"name=ip_id_delta,help='IP-ID minus SN, two complement 16 bit'"`

	TOSCount      uint `rohc:"name=tos_count,help='Consecutive packets since TOS last changed'"`
	TTLCount      uint `rohc:"name=ttl_count,help='Consecutive packets since TTL last changed'"`
	DFCount       uint `rohc:"name=df_count,help='Consecutive packets since DF last changed'"`
	ProtocolCount uint `rohc:"name=protocol_count,help='Consecutive packets since protocol last changed'"`
	RNDCount      uint `rohc:"name=rnd_count,help='Consecutive packets since RND last changed'"`
	NBOCount      uint `rohc:"name=nbo_count,help='Consecutive packets since NBO last changed'"`

	IPIDWindow *wlsb.Window
}

// NewIPHeaderInfo returns a zeroed IPHeaderInfo with its W-LSB window
// initialized with the sequential-NBO IP-ID offset function (p = 0).
// The offset function is not changed afterwards, whatever IP-ID
// behavior the flow shows.
func NewIPHeaderInfo() *IPHeaderInfo {
	return &IPHeaderInfo{
		IPIDWindow: wlsb.NewWindow(wlsb.DefaultWidth, 16, wlsb.POffsetIPIDSequential),
	}
}

// BumpOrReset increments a change counter, capping it at MaxFOCountCap, or
// resets it to 0 when changed is true.
func BumpOrReset(counter uint, changed bool) uint {
	if changed {
		return 0
	}
	if counter >= MaxFOCountCap {
		return MaxFOCountCap
	}
	return counter + 1
}

// UDPInfo is the UDP-profile tail of a context.
type UDPInfo struct {
	Source uint16 `rohc:"name=udp_source,help='Source port'"`
	Dest   uint16 `rohc:"name=udp_dest,help='Destination port'"`
	Check  uint16 `rohc:"name=udp_checksum,help='Last sent UDP checksum'"`

	ChecksumChangeCount uint `rohc:"name=udp_checksum_change_count,help='Consecutive packets since checksum presence last changed'"`

	// Lite marks this as a UDP-Lite flow (profile 0x0008): the dynamic
	// chain is otherwise identical to UDP's, see pkg/profile/udp.go.
	Lite bool
}

// Context is the full per-(CID, profile, direction) state. A single
// Context is shared in spirit between a compressor and its peer
// decompressor -- each side owns its own instance, kept in
// sync by the protocol -- so both CompState and DecompState exist on the
// type; whichever side a given Context belongs to only ever touches the
// matching field.
type Context struct {
	CID       uint16 `rohc:"name=cid,help='Context identifier'"`
	ProfileID uint16 `rohc:"name=profile_id,help='ROHC profile identifier'"`
	Mode      Mode   `rohc:"name=mode,help='Operating mode (U/O/R)'"`

	CompState   CompressorState   `rohc:"name=comp_state,help='Compressor state (IR/FO/SO)'"`
	DecompState DecompressorState `rohc:"name=decomp_state,help='Decompressor state (NC/SC/FC)'"`

	SN uint16 `rohc:"name=sn,help='ROHC master sequence number'"`

	Outer    *IPHeaderInfo
	HasInner bool
	Inner    *IPHeaderInfo

	HasUDP bool
	UDP    UDPInfo

	SNWindow *wlsb.Window

	IRCount       uint `rohc:"name=ir_count,help='Consecutive IR packets sent/accepted'"`
	FOCount       uint `rohc:"name=fo_count,help='Consecutive FO packets sent/accepted'"`
	SOCount       uint `rohc:"name=so_count,help='Consecutive SO packets sent/accepted'"`
	IRDynCount    uint `rohc:"name=ir_dyn_count,help='IR-DYN packets sent since FO entry'"`
	GoBackFOCount uint `rohc:"name=go_back_fo_count,help='Consecutive SO packets, U-mode periodic downgrade counter'"`
	GoBackIRCount uint `rohc:"name=go_back_ir_count,help='Consecutive FO/SO packets, U-mode periodic downgrade counter'"`

	CRCFailures uint `rohc:"name=crc_failures,prom_type=counter,help='Consecutive CRC failures in FC'"`
	IRFailures  uint `rohc:"name=ir_failures,prom_type=counter,help='Consecutive rejected IR packets in NC/SC'"`

	FirstUsed  int64 `rohc:"name=first_used,help='Unix nanoseconds context was created'"`
	LatestUsed int64 `rohc:"name=latest_used,help='Unix nanoseconds context was last used'"`
}

// Config holds the lifecycle tunables shared by the compressor and
// decompressor state machines.
type Config struct {
	WindowWidth     int
	MaxIRCount      uint
	MaxFOCount      uint
	ChangeToFOCount uint
	ChangeToIRCount uint
	IPIDMaxDelta    uint16
}

// DefaultConfig returns reasonable defaults for every tunable.
func DefaultConfig() Config {
	return Config{
		WindowWidth:     wlsb.DefaultWidth,
		MaxIRCount:      DefaultMaxIRCount,
		MaxFOCount:      DefaultMaxFOCount,
		ChangeToFOCount: DefaultChangeToFOCount,
		ChangeToIRCount: DefaultChangeToIRCount,
		IPIDMaxDelta:    20,
	}
}

// NewContext creates a fresh context in its initial state (IR/NC), with
// all three W-LSB windows allocated.
func NewContext(cid, profileID uint16, mode Mode, cfg Config, hasInner, hasUDP bool) *Context {
	width := cfg.WindowWidth
	ctx := &Context{
		CID:         cid,
		ProfileID:   profileID,
		Mode:        mode,
		CompState:   CompIR,
		DecompState: DecompNC,
		Outer:       NewIPHeaderInfo(),
		HasInner:    hasInner,
		HasUDP:      hasUDP,
		SNWindow:    wlsb.NewWindow(width, 16, wlsb.POffsetSN),
	}
	ctx.Outer.IPIDWindow = wlsb.NewWindow(width, 16, wlsb.POffsetIPIDSequential)
	if hasInner {
		ctx.Inner = NewIPHeaderInfo()
		ctx.Inner.IPIDWindow = wlsb.NewWindow(width, 16, wlsb.POffsetIPIDSequential)
	}
	return ctx
}

// Touch records a use of the context for LRU eviction bookkeeping. The
// eviction policy itself lives outside this package; Context only
// carries the timestamps it needs.
func (c *Context) Touch(nowUnixNano int64) {
	if c.FirstUsed == 0 {
		c.FirstUsed = nowUnixNano
	}
	c.LatestUsed = nowUnixNano
}
