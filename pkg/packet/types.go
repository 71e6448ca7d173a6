package packet

// Type discriminates the ROHC packet formats.
type Type int

const (
	TypeUnknown Type = iota
	TypeIR
	TypeIRDYN
	TypeUO0
	TypeUO1
	TypeUO2
	TypeFeedback
)

func (t Type) String() string {
	switch t {
	case TypeIR:
		return "IR"
	case TypeIRDYN:
		return "IR-DYN"
	case TypeUO0:
		return "UO-0"
	case TypeUO1:
		return "UO-1"
	case TypeUO2:
		return "UO-2"
	case TypeFeedback:
		return "FEEDBACK"
	default:
		return "unknown"
	}
}

// Ext discriminates a UO-2 extension.
type Ext int

const (
	ExtNone Ext = iota
	Ext0
	Ext1
	Ext2
	Ext3
)

func (e Ext) String() string {
	switch e {
	case ExtNone:
		return "NOEXT"
	case Ext0:
		return "EXT-0"
	case Ext1:
		return "EXT-1"
	case Ext2:
		return "EXT-2"
	case Ext3:
		return "EXT-3"
	default:
		return "unknown"
	}
}

// IR is the Initialization & Refresh packet: full static chain, and the
// dynamic chain when D is set.
type IR struct {
	CID          uint16
	ProfileID    uint16
	CRC          uint8
	HasDynamic   bool
	StaticChain  []byte
	DynamicChain []byte
	SN           uint16
	Payload      []byte
}

// IRDYN is the IR-DYN packet: dynamic chain only, refreshing context
// fields without resending the static chain.
type IRDYN struct {
	CID          uint16
	ProfileID    uint16
	CRC          uint8
	DynamicChain []byte
	SN           uint16
	Payload      []byte
}

// UO0 is the 1-byte UO-0 packet: 0 SN(4) CRC(3).
type UO0 struct {
	CID     uint16
	SNBits  uint8 // low 4 bits of SN
	CRC     uint8 // CRC-3
	Tail    []byte
	Payload []byte
}

// UO1 is the 2-byte UO-1 packet: 10 IPID(6) / SN(5) CRC(3).
type UO1 struct {
	CID       uint16
	IPIDBits  uint8 // low 6 bits of the outer IP-ID
	SNBits    uint8 // low 5 bits of SN
	CRC       uint8 // CRC-3
	Tail      []byte
	Payload   []byte
}

// UO2 is the UO-2 packet: 110 SN(5) / X CRC(7), with an optional
// extension carrying more SN/IP-ID bits.
type UO2 struct {
	CID     uint16
	SNBits  uint8 // low 5 bits of SN
	X       bool  // extension present
	CRC     uint8 // CRC-7
	Ext     Ext
	ExtData []byte
	Tail    []byte
	Payload []byte
}

// Packet is any decoded ROHC packet, wrapped with its discriminated type.
type Packet struct {
	Type  Type
	IR    *IR
	IRDYN *IRDYN
	UO0   *UO0
	UO1   *UO1
	UO2   *UO2
}
