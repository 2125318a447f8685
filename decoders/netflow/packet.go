// Package netflow decodes NetFlow v9 and IPFIX (v10) PDUs: fixed headers
// followed by one or more flowsets, each either a template declaration or
// a batch of data records keyed to a previously seen template.
package netflow

// Header carries the fields common to the v9 and IPFIX PDU headers that
// the record decoder needs for event construction and timestamp
// synthesis.
type Header struct {
	Version     uint16
	Count       uint16 // v9 only: number of records/flowsets following
	Length      uint16 // IPFIX only: total message length
	UptimeMs    uint32 // v9 only: milliseconds since device boot
	UnixSeconds uint32 // export time, seconds since the Unix epoch (v9 unix_secs / IPFIX exportTime)
	SequenceNum uint32
	SourceID    uint32 // v9 Source ID / IPFIX Observation Domain ID
}

// FlowSetHeader is the 4-byte header shared by every v9/IPFIX flowset.
//
//	0            TemplateFlowSet (v9) / reserved (IPFIX)
//	1            OptionsTemplateFlowSet (v9)
//	2            TemplateFlowSet (IPFIX)
//	3            OptionsTemplateFlowSet (IPFIX)
//	256-65535    DataFlowSet, ID doubles as the referenced template ID
type FlowSetHeader struct {
	ID     uint16
	Length uint16
}

// RawField is a template field as declared on the wire, before catalog
// resolution: a type, a length, and (IPFIX only) an enterprise number.
type RawField struct {
	Type         uint16
	Length       uint16
	EnterpriseID uint32 // 0 unless the enterprise bit was set
}

// RawTemplateRecord is one template declaration within a template
// flowset, prior to Field Resolver processing.
type RawTemplateRecord struct {
	TemplateID uint16
	Fields     []RawField
}

// RawOptionsTemplateRecord is one options template declaration: a scope
// field list and an option field list, prior to resolution.
type RawOptionsTemplateRecord struct {
	TemplateID uint16
	Scopes     []RawField
	Options    []RawField
}
