package netflow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeHeaderV9(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.Write([]byte{
		0x00, 0x02, // count=2
		0x00, 0x00, 0x27, 0x10, // uptime
		0x5F, 0x5E, 0x10, 0x00, // unix seconds
		0x00, 0x00, 0x00, 0x01, // sequence
		0x00, 0x00, 0x00, 0x2A, // source id
	})
	h, err := DecodeHeader(9, buf)
	require.NoError(t, err)
	require.EqualValues(t, 2, h.Count)
	require.EqualValues(t, 0x2A, h.SourceID)
}

func TestDecodeFlowSetHeader(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x01, 0x00, 0x00, 0x10})
	fsh, err := DecodeFlowSetHeader(buf)
	require.NoError(t, err)
	require.EqualValues(t, 256, fsh.ID)
	require.EqualValues(t, 16, fsh.Length)
}

func TestDecodeRawFieldIPFIXEnterpriseBit(t *testing.T) {
	buf := bytes.NewBuffer([]byte{
		0x80, 0x01, // type 1 with enterprise bit set
		0x00, 0x04, // length 4
		0x00, 0x00, 0x29, 0xA1, // enterprise id
	})
	f, err := DecodeRawField(buf, true)
	require.NoError(t, err)
	require.EqualValues(t, 1, f.Type)
	require.EqualValues(t, 0x29A1, f.EnterpriseID)
}

func TestDecodeRawFieldNoEnterpriseBit(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x01, 0x00, 0x04})
	f, err := DecodeRawField(buf, true)
	require.NoError(t, err)
	require.EqualValues(t, 1, f.Type)
	require.EqualValues(t, 0, f.EnterpriseID)
}

func TestDecodeTemplateSetV9(t *testing.T) {
	buf := bytes.NewBuffer([]byte{
		0x01, 0x00, // template id 256
		0x00, 0x02, // field count 2
		0x00, 0x01, 0x00, 0x04, // type 1, len 4
		0x00, 0x02, 0x00, 0x04, // type 2, len 4
	})
	records, err := DecodeTemplateSet(buf, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.EqualValues(t, 256, records[0].TemplateID)
	require.Len(t, records[0].Fields, 2)
}

func TestDecodeOptionsTemplateSetV9(t *testing.T) {
	buf := bytes.NewBuffer([]byte{
		0x01, 0x00, // template id 256
		0x00, 0x04, // scope length 4 (1 field)
		0x00, 0x04, // option length 4 (1 field)
		0x00, 0x01, 0x00, 0x04, // scope field: System, len 4
		0x00, 0x29, 0x00, 0x04, // option field type 41, len 4
	})
	records, err := DecodeOptionsTemplateSetV9(buf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Scopes, 1)
	require.Len(t, records[0].Options, 1)
	require.EqualValues(t, ScopeSystem, records[0].Scopes[0].Type)
}

func TestDecodeOptionsTemplateSetIPFIX(t *testing.T) {
	buf := bytes.NewBuffer([]byte{
		0x01, 0x00, // template id 256
		0x00, 0x02, // field count 2
		0x00, 0x01, // scope field count 1
		0x00, 0x0A, 0x00, 0x04, // scope: ingressInterface, len 4
		0x00, 0x01, 0x00, 0x04, // option: octetDeltaCount, len 4
	})
	records, err := DecodeOptionsTemplateSetIPFIX(buf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Scopes, 1)
	require.Len(t, records[0].Options, 1)
}

func TestSplitDataRecordsExact(t *testing.T) {
	payload := make([]byte, 16)
	records, err := SplitDataRecords(payload, 8)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestSplitDataRecordsWithPadding(t *testing.T) {
	payload := make([]byte, 19) // two 8-byte records + 3 bytes padding
	records, err := SplitDataRecords(payload, 8)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestSplitDataRecordsInvalidRemainder(t *testing.T) {
	payload := make([]byte, 20) // remainder of 4, outside the tolerated {0,1,2,3}
	_, err := SplitDataRecords(payload, 8)
	require.Error(t, err)
}

func TestSplitDataRecordsShorterThanWidth(t *testing.T) {
	payload := make([]byte, 4)
	_, err := SplitDataRecords(payload, 8)
	require.Error(t, err)
}
