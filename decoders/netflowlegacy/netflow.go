package netflowlegacy

import (
	"bytes"
	"fmt"

	"github.com/adelbot/logstash-codec-netflow/decoders/utils"
)

// DecoderError wraps any failure encountered while decoding a v5 PDU.
type DecoderError struct {
	Err error
}

func (e *DecoderError) Error() string {
	return fmt.Sprintf("NetFlowLegacy %s", e.Err.Error())
}

func (e *DecoderError) Unwrap() error {
	return e.Err
}

// DecodeMessageVersion reads the leading version field and rejects
// anything other than 5 before decoding the rest of the PDU.
func DecodeMessageVersion(payload *bytes.Buffer, packet *PacketNetFlowV5) error {
	var version uint16
	if err := utils.BinaryDecoder(payload, &version); err != nil {
		return &DecoderError{err}
	}
	packet.Version = version
	if packet.Version != 5 {
		return &DecoderError{fmt.Errorf("unknown version %d", version)}
	}
	return DecodeMessage(payload, packet)
}

// DecodeMessage decodes the v5 header and its fixed-length record
// array. A record is only decoded while at least 48 bytes remain,
// which tolerates a header Count that overstates a truncated payload.
func DecodeMessage(payload *bytes.Buffer, packet *PacketNetFlowV5) error {
	if err := utils.BinaryDecoder(payload,
		&packet.Count,
		&packet.SysUptime,
		&packet.UnixSecs,
		&packet.UnixNSecs,
		&packet.FlowSequence,
		&packet.EngineType,
		&packet.EngineId,
		&packet.SamplingInterval,
	); err != nil {
		return &DecoderError{err}
	}

	packet.Records = make([]RecordsNetFlowV5, 0, packet.Count)
	for i := 0; i < int(packet.Count) && payload.Len() >= 48; i++ {
		var record RecordsNetFlowV5

		if err := utils.BinaryDecoder(payload,
			&record.SrcAddr,
			&record.DstAddr,
			&record.NextHop,
			&record.Input,
			&record.Output,
			&record.DPkts,
			&record.DOctets,
			&record.First,
			&record.Last,
			&record.SrcPort,
			&record.DstPort,
			&record.Pad1,
			&record.TCPFlags,
			&record.Proto,
			&record.Tos,
			&record.SrcAS,
			&record.DstAS,
			&record.SrcMask,
			&record.DstMask,
			&record.Pad2,
		); err != nil {
			return &DecoderError{err}
		}
		packet.Records = append(packet.Records, record)
	}

	return nil
}
