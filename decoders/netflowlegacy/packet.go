// Package netflowlegacy decodes NetFlow v5: a fixed 24-byte header
// followed by a fixed-length array of 48-byte flow records. There are
// no templates; the layout never varies.
package netflowlegacy

// PacketNetFlowV5 is the full decoded v5 PDU.
type PacketNetFlowV5 struct {
	Version          uint16
	Count            uint16
	SysUptime        uint32 // milliseconds since device boot
	UnixSecs         uint32 // export time, whole seconds
	UnixNSecs        uint32 // export time, nanosecond remainder
	FlowSequence     uint32
	EngineType       uint8
	EngineId         uint8
	SamplingInterval uint16 // top 2 bits: algorithm, low 14 bits: interval
	Records          []RecordsNetFlowV5
}

// RecordsNetFlowV5 is one fixed-layout v5 flow record.
type RecordsNetFlowV5 struct {
	SrcAddr  uint32
	DstAddr  uint32
	NextHop  uint32
	Input    uint16
	Output   uint16
	DPkts    uint32
	DOctets  uint32
	First    uint32 // ms since boot, start of flow
	Last     uint32 // ms since boot, end of flow
	SrcPort  uint16
	DstPort  uint16
	Pad1     byte
	TCPFlags uint8
	Proto    uint8
	Tos      uint8
	SrcAS    uint16
	DstAS    uint16
	SrcMask  uint8
	DstMask  uint8
	Pad2     uint16
}
