package netflow

import (
	"bytes"
	"fmt"

	"github.com/adelbot/logstash-codec-netflow/decoders/utils"
)

// DecoderError wraps any failure encountered while decoding a v9/IPFIX
// PDU, naming the decoding stage it happened in.
type DecoderError struct {
	Decoder string
	Err     error
}

func (e *DecoderError) Error() string {
	return fmt.Sprintf("%s %s", e.Decoder, e.Err.Error())
}

func (e *DecoderError) Unwrap() error { return e.Err }

// enterpriseBit marks an IPFIX field_type as carrying a following
// 4-byte enterprise number; the low 15 bits give the real field type.
const enterpriseBit = 0x8000

// DecodeHeader reads the fixed v9 or IPFIX header. version must
// already be known to the caller (read separately off the front of the
// datagram) since the two headers diverge immediately after it.
func DecodeHeader(version uint16, payload *bytes.Buffer) (Header, error) {
	h := Header{Version: version}
	switch version {
	case 9:
		if err := utils.BinaryDecoder(payload,
			&h.Count,
			&h.UptimeMs,
			&h.UnixSeconds,
			&h.SequenceNum,
			&h.SourceID,
		); err != nil {
			return h, &DecoderError{"NetFlowV9 header", err}
		}
	case 10:
		if err := utils.BinaryDecoder(payload,
			&h.Length,
			&h.UnixSeconds,
			&h.SequenceNum,
			&h.SourceID,
		); err != nil {
			return h, &DecoderError{"IPFIX header", err}
		}
	default:
		return h, &DecoderError{"header", fmt.Errorf("unsupported version %d", version)}
	}
	return h, nil
}

// DecodeFlowSetHeader reads the 4-byte flowset header common to v9 and
// IPFIX.
func DecodeFlowSetHeader(payload *bytes.Buffer) (FlowSetHeader, error) {
	var fsh FlowSetHeader
	if err := utils.BinaryDecoder(payload, &fsh.ID, &fsh.Length); err != nil {
		return fsh, &DecoderError{"flowset header", err}
	}
	return fsh, nil
}

// DecodeRawField reads one template field declaration. For IPFIX
// (ipfix=true), the enterprise bit in field_type is consulted: when
// set, a trailing 4-byte enterprise number follows and the bit is
// cleared from the returned Type.
func DecodeRawField(payload *bytes.Buffer, ipfix bool) (RawField, error) {
	var f RawField
	if err := utils.BinaryDecoder(payload, &f.Type, &f.Length); err != nil {
		return f, err
	}
	if ipfix && f.Type&enterpriseBit != 0 {
		f.Type &^= enterpriseBit
		if err := utils.BinaryDecoder(payload, &f.EnterpriseID); err != nil {
			return f, err
		}
	}
	return f, nil
}

// DecodeTemplateSet reads every template record in a template flowset
// payload (v9 flowset_id 0 or IPFIX flowset_id 2).
func DecodeTemplateSet(payload *bytes.Buffer, ipfix bool) ([]RawTemplateRecord, error) {
	var records []RawTemplateRecord
	for payload.Len() >= 4 {
		var rec RawTemplateRecord
		var fieldCount uint16
		if err := utils.BinaryDecoder(payload, &rec.TemplateID, &fieldCount); err != nil {
			return records, fmt.Errorf("template header: %w", err)
		}
		rec.Fields = make([]RawField, fieldCount)
		for i := 0; i < int(fieldCount); i++ {
			f, err := DecodeRawField(payload, ipfix)
			if err != nil {
				return records, fmt.Errorf("template field %d: %w", i, err)
			}
			rec.Fields[i] = f
		}
		records = append(records, rec)
	}
	return records, nil
}

// scope field type enumeration for NetFlow v9 options templates (§4.6).
const (
	ScopeSystem       uint16 = 1
	ScopeInterface    uint16 = 2
	ScopeLineCard     uint16 = 3
	ScopeNetFlowCache uint16 = 4
	ScopeTemplate     uint16 = 5
)

// DecodeOptionsTemplateSetV9 reads v9 options template records
// (flowset_id 1). Scope fields are 4-byte (field_type, field_length)
// pairs, counted by byte length rather than field count.
func DecodeOptionsTemplateSetV9(payload *bytes.Buffer) ([]RawOptionsTemplateRecord, error) {
	var records []RawOptionsTemplateRecord
	for payload.Len() >= 6 {
		var rec RawOptionsTemplateRecord
		var scopeLen, optionLen uint16
		if err := utils.BinaryDecoder(payload, &rec.TemplateID, &scopeLen, &optionLen); err != nil {
			return records, fmt.Errorf("options template header: %w", err)
		}

		scopeCount := int(scopeLen) / 4
		optionCount := int(optionLen) / 4

		rec.Scopes = make([]RawField, scopeCount)
		for i := 0; i < scopeCount; i++ {
			f, err := DecodeRawField(payload, false)
			if err != nil {
				return records, fmt.Errorf("options scope field %d: %w", i, err)
			}
			rec.Scopes[i] = f
		}

		rec.Options = make([]RawField, optionCount)
		for i := 0; i < optionCount; i++ {
			f, err := DecodeRawField(payload, false)
			if err != nil {
				return records, fmt.Errorf("options field %d: %w", i, err)
			}
			rec.Options[i] = f
		}

		records = append(records, rec)
	}
	return records, nil
}

// DecodeOptionsTemplateSetIPFIX reads IPFIX options template records
// (flowset_id 3). Unlike v9, scope and option fields share the same
// enterprise-capable encoding and are counted as a total field count
// plus a scope-field-count prefix of it — there is no dedicated scope
// enumeration (see the open-question decisions in DESIGN.md on this
// asymmetry).
func DecodeOptionsTemplateSetIPFIX(payload *bytes.Buffer) ([]RawOptionsTemplateRecord, error) {
	var records []RawOptionsTemplateRecord
	for payload.Len() >= 6 {
		var rec RawOptionsTemplateRecord
		var fieldCount, scopeFieldCount uint16
		if err := utils.BinaryDecoder(payload, &rec.TemplateID, &fieldCount, &scopeFieldCount); err != nil {
			return records, fmt.Errorf("options template header: %w", err)
		}
		if int(scopeFieldCount) > int(fieldCount) {
			return records, fmt.Errorf("options template: scope field count %d exceeds field count %d", scopeFieldCount, fieldCount)
		}

		rec.Scopes = make([]RawField, scopeFieldCount)
		for i := range rec.Scopes {
			f, err := DecodeRawField(payload, true)
			if err != nil {
				return records, fmt.Errorf("options scope field %d: %w", i, err)
			}
			rec.Scopes[i] = f
		}

		rec.Options = make([]RawField, int(fieldCount)-int(scopeFieldCount))
		for i := range rec.Options {
			f, err := DecodeRawField(payload, true)
			if err != nil {
				return records, fmt.Errorf("options field %d: %w", i, err)
			}
			rec.Options[i] = f
		}

		records = append(records, rec)
	}
	return records, nil
}

// SplitDataRecords validates a data flowset payload against a
// template's width and splits it into individual record byte slices,
// tolerating up to 3 bytes of trailing padding per §4.6.
func SplitDataRecords(payload []byte, width int) ([][]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("template width must be positive, got %d", width)
	}
	if len(payload) < width {
		return nil, fmt.Errorf("payload length %d shorter than template width %d", len(payload), width)
	}
	remainder := len(payload) % width
	if remainder > 3 {
		return nil, fmt.Errorf("payload length %d is not a whole number of %d-byte records (remainder %d)", len(payload), width, remainder)
	}
	count := len(payload) / width
	records := make([][]byte, count)
	for i := 0; i < count; i++ {
		records[i] = payload[i*width : (i+1)*width]
	}
	return records, nil
}
