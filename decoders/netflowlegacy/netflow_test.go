package netflowlegacy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMessageVersionHappyPath(t *testing.T) {
	packet := &PacketNetFlowV5{
		Version:  5,
		UnixSecs: 1_600_000_000,
		Records: []RecordsNetFlowV5{
			{SrcAddr: 0x0A000001, First: 9000, Last: 9500},
			{SrcAddr: 0x0A000002, First: 9000, Last: 9500},
		},
	}
	raw, err := EncodeMessage(packet)
	require.NoError(t, err)

	var decoded PacketNetFlowV5
	require.NoError(t, DecodeMessageVersion(bytes.NewBuffer(raw), &decoded))
	require.EqualValues(t, 5, decoded.Version)
	require.Len(t, decoded.Records, 2)
	require.EqualValues(t, 0x0A000001, decoded.Records[0].SrcAddr)
}

func TestDecodeMessageVersionRejectsWrongVersion(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x09, 0x00, 0x00})
	var decoded PacketNetFlowV5
	err := DecodeMessageVersion(buf, &decoded)
	require.Error(t, err)
}

func TestDecodeMessageTruncatedRecordsStopEarly(t *testing.T) {
	packet := &PacketNetFlowV5{
		Version: 5,
		Records: []RecordsNetFlowV5{
			{SrcAddr: 1}, {SrcAddr: 2}, {SrcAddr: 3},
		},
	}
	raw, err := EncodeMessage(packet)
	require.NoError(t, err)

	// truncate to the header plus less than one full 48-byte record
	truncated := raw[:24+20]

	var decoded PacketNetFlowV5
	require.NoError(t, DecodeMessage(bytes.NewBuffer(truncated[2:]), &decoded))
	require.Len(t, decoded.Records, 0)
}
