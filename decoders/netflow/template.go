package netflow

import (
	"fmt"
	"net"
	"strings"

	"github.com/adelbot/logstash-codec-netflow/catalog"
)

// ResolvedField is the concrete decoding descriptor produced by the
// Field Resolver for one declared template field: a name, a decode
// kind, and the encoded width to read off the wire.
type ResolvedField struct {
	Name  string
	Kind  catalog.Kind
	Width int
}

// ErrUnsupportedField means the catalog carries no entry for a declared
// field; the template containing it must be rejected.
type ErrUnsupportedField struct {
	FieldType    uint16
	EnterpriseID uint32
}

func (e *ErrUnsupportedField) Error() string {
	return fmt.Sprintf("unsupported field type=%d enterprise=%d", e.FieldType, e.EnterpriseID)
}

// ErrVariableLength means a template declared the IPFIX 0xFFFF
// variable-length encoding, which this decoder does not support.
var ErrVariableLength = fmt.Errorf("variable-length (0xFFFF) field not supported")

// ErrStructuredData means a template declared one of IPFIX's structured
// data types (basicList/subTemplateList/subTemplateMultiList, 291-293 at
// enterprise 0), which this decoder does not support.
var ErrStructuredData = fmt.Errorf("structured data type not supported")

const (
	ipfixVariableLength = 0xFFFF
)

var ipfixStructuredTypes = map[uint16]bool{
	291: true,
	292: true,
	293: true,
}

// ResolveField implements §4.2 of the Field Resolver: it looks up the
// declared field in the appropriate catalog and applies the
// length-dependent rewrites (skip byte count, string trim width,
// integer widen/narrow, legacy default-width substitution). ipfix must
// be true when resolving an IPFIX field (enabling the var-length and
// structured-data rejections); it is false for NetFlow v9.
func ResolveField(cat *catalog.Catalog, field RawField, ipfix bool) (ResolvedField, error) {
	if ipfix {
		if field.Length == ipfixVariableLength {
			return ResolvedField{}, ErrVariableLength
		}
		if field.EnterpriseID == 0 && ipfixStructuredTypes[field.Type] {
			return ResolvedField{}, ErrStructuredData
		}
	}

	var (
		desc catalog.FieldDescriptor
		ok   bool
	)
	if ipfix {
		desc, ok = cat.LookupIPFIX(field.EnterpriseID, field.Type)
	} else {
		desc, ok = cat.LookupNetFlowV9(field.Type)
	}
	if !ok {
		return ResolvedField{}, &ErrUnsupportedField{field.Type, field.EnterpriseID}
	}

	width := int(field.Length)
	if desc.Kind == catalog.KindUint && width == 0 {
		width = desc.DefaultWidth
	}
	return ResolvedField{Name: desc.Name, Kind: desc.Kind, Width: width}, nil
}

// CompiledTemplate is the concatenation of resolved field descriptors in
// declaration order, with a fixed total record width. It is the only
// unit the Record Decoder applies repeatedly against a data flowset's
// payload.
type CompiledTemplate struct {
	Fields []ResolvedField
	Width  int
}

// CompileTemplate resolves every field of a raw template record. If any
// field is unresolvable the template as a whole is rejected (nil
// template and the resolver's error); the caller must not cache it.
func CompileTemplate(cat *catalog.Catalog, fields []RawField, ipfix bool) (*CompiledTemplate, error) {
	resolved := make([]ResolvedField, len(fields))
	width := 0
	for i, f := range fields {
		rf, err := ResolveField(cat, f, ipfix)
		if err != nil {
			return nil, err
		}
		resolved[i] = rf
		width += rf.Width
	}
	return &CompiledTemplate{Fields: resolved, Width: width}, nil
}

// CompiledOptionsTemplate is a compiled options template: separately
// compiled scope and option segments, decoded independently against
// their respective halves of each options data record.
type CompiledOptionsTemplate struct {
	Scopes  *CompiledTemplate
	Options *CompiledTemplate
}

// CompileOptionsTemplateV9 compiles a v9 options template. Scope fields
// are not catalog entries: per §4.6 they are always unsigned integers
// of the declared length, named by the fixed scope enumeration
// (System/Interface/LineCard/NetflowCache/Template) rather than
// resolved through the catalog.
func CompileOptionsTemplateV9(cat *catalog.Catalog, scopes, options []RawField) (*CompiledOptionsTemplate, error) {
	scopeFields := make([]ResolvedField, len(scopes))
	for i, f := range scopes {
		scopeFields[i] = ResolvedField{Name: scopeName(f.Type), Kind: catalog.KindUint, Width: int(f.Length)}
	}
	scopeWidth := 0
	for _, f := range scopeFields {
		scopeWidth += f.Width
	}

	optsTemplate, err := CompileTemplate(cat, options, false)
	if err != nil {
		return nil, err
	}

	return &CompiledOptionsTemplate{
		Scopes:  &CompiledTemplate{Fields: scopeFields, Width: scopeWidth},
		Options: optsTemplate,
	}, nil
}

// CompileOptionsTemplateIPFIX compiles an IPFIX options template. Scope
// and option fields share the same enterprise-capable catalog
// resolution; this is the asymmetry with v9 noted in §9.
func CompileOptionsTemplateIPFIX(cat *catalog.Catalog, scopes, options []RawField) (*CompiledOptionsTemplate, error) {
	scopeTemplate, err := CompileTemplate(cat, scopes, true)
	if err != nil {
		return nil, err
	}
	optsTemplate, err := CompileTemplate(cat, options, true)
	if err != nil {
		return nil, err
	}
	return &CompiledOptionsTemplate{Scopes: scopeTemplate, Options: optsTemplate}, nil
}

func scopeName(fieldType uint16) string {
	switch fieldType {
	case ScopeSystem:
		return "System"
	case ScopeInterface:
		return "Interface"
	case ScopeLineCard:
		return "LineCard"
	case ScopeNetFlowCache:
		return "NetflowCache"
	case ScopeTemplate:
		return "Template"
	default:
		return fmt.Sprintf("Scope%d", fieldType)
	}
}

// NamedValue is one decoded field: its catalog name and its Go value.
// Skip fields never appear in the output of Decode.
type NamedValue struct {
	Name  string
	Value interface{}
}

// Decode applies the template to a byte slice of exactly t.Width bytes,
// producing one (name, value) pair per non-skip field in declaration
// order.
func (t *CompiledTemplate) Decode(record []byte) ([]NamedValue, error) {
	if len(record) != t.Width {
		return nil, fmt.Errorf("record length %d does not match template width %d", len(record), t.Width)
	}
	out := make([]NamedValue, 0, len(t.Fields))
	offset := 0
	for _, f := range t.Fields {
		chunk := record[offset : offset+f.Width]
		offset += f.Width

		switch f.Kind {
		case catalog.KindSkip:
			// consumes bytes, produces no pair
		case catalog.KindIPv4:
			ip := make(net.IP, len(chunk))
			copy(ip, chunk)
			out = append(out, NamedValue{f.Name, ip})
		case catalog.KindIPv6:
			ip := make(net.IP, len(chunk))
			copy(ip, chunk)
			out = append(out, NamedValue{f.Name, ip})
		case catalog.KindMAC:
			mac := make(net.HardwareAddr, len(chunk))
			copy(mac, chunk)
			out = append(out, NamedValue{f.Name, mac})
		case catalog.KindString:
			s := strings.TrimRight(string(chunk), "\x00 ")
			out = append(out, NamedValue{f.Name, s})
		case catalog.KindUint:
			out = append(out, NamedValue{f.Name, decodeUint(chunk)})
		default:
			return nil, fmt.Errorf("unknown field kind %v for %s", f.Kind, f.Name)
		}
	}
	return out, nil
}

// decodeUint reads a big-endian unsigned integer of any byte width (the
// wire format allows narrowed/widened widths such as a nominal u32
// field arriving as u24).
func decodeUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
