// Package catalog holds the static, immutable dictionaries that map a
// protocol's (enterprise, field type) pair to a semantic field
// descriptor. It is loaded once at startup and never mutated afterward.
package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind is the semantic type a field decodes to.
type Kind int

const (
	// KindUint decodes an unsigned integer of the field's declared width
	// (1 through 8 bytes).
	KindUint Kind = iota
	// KindIPv4 decodes a 4-byte IPv4 address.
	KindIPv4
	// KindIPv6 decodes a 16-byte IPv6 address.
	KindIPv6
	// KindMAC decodes a 6-byte MAC address.
	KindMAC
	// KindString decodes a fixed-length byte string, trimmed of trailing
	// NUL/space padding.
	KindString
	// KindSkip consumes the declared length and produces no value.
	KindSkip
)

// FieldDescriptor is the immutable catalog entry for one field type.
type FieldDescriptor struct {
	Kind Kind
	Name string
	// DefaultWidth is the legacy-form width (in bytes) to use when a
	// template declares length 0 for this field. Zero means "no hint".
	DefaultWidth int
}

// EnterpriseField identifies an IPFIX field by enterprise number and
// field type. Enterprise 0 is the IANA standard set.
type EnterpriseField struct {
	EnterpriseID uint32
	FieldType    uint16
}

// Catalog is a read-only dictionary of field descriptors.
type Catalog struct {
	netflowV9 map[uint16]FieldDescriptor
	ipfix     map[EnterpriseField]FieldDescriptor
}

// LookupNetFlowV9 resolves a NetFlow v9 field type. ok is false if the
// catalog carries no entry for it.
func (c *Catalog) LookupNetFlowV9(fieldType uint16) (FieldDescriptor, bool) {
	d, ok := c.netflowV9[fieldType]
	return d, ok
}

// LookupIPFIX resolves an IPFIX (enterprise, field type) pair.
func (c *Catalog) LookupIPFIX(enterpriseID uint32, fieldType uint16) (FieldDescriptor, bool) {
	d, ok := c.ipfix[EnterpriseField{enterpriseID, fieldType}]
	return d, ok
}

// rawEntry is the on-disk shape of one catalog entry before it is
// normalized into a FieldDescriptor. YAML entries come in three forms:
//
//	[semantic_type, name]   e.g. [uint, IN_BYTES]
//	[skip]
//	[default_width, name]   legacy form, default_width is an integer
type rawEntry []interface{}

func (e rawEntry) normalize() (FieldDescriptor, error) {
	if len(e) == 0 {
		return FieldDescriptor{}, fmt.Errorf("catalog: empty entry")
	}
	if len(e) == 1 {
		kind, ok := e[0].(string)
		if !ok || kind != "skip" {
			return FieldDescriptor{}, fmt.Errorf("catalog: single-element entry must be [skip], got %v", e)
		}
		return FieldDescriptor{Kind: KindSkip, Name: "skip"}, nil
	}
	if len(e) != 2 {
		return FieldDescriptor{}, fmt.Errorf("catalog: entry must have 1 or 2 elements, got %d", len(e))
	}
	name, ok := e[1].(string)
	if !ok {
		return FieldDescriptor{}, fmt.Errorf("catalog: entry name must be a string, got %v", e[1])
	}
	switch t := e[0].(type) {
	case string:
		kind, err := parseKind(t)
		if err != nil {
			return FieldDescriptor{}, err
		}
		return FieldDescriptor{Kind: kind, Name: name}, nil
	case int:
		return FieldDescriptor{Kind: KindUint, Name: name, DefaultWidth: t}, nil
	default:
		return FieldDescriptor{}, fmt.Errorf("catalog: unrecognized first element %v (%T)", e[0], e[0])
	}
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "uint":
		return KindUint, nil
	case "ipv4":
		return KindIPv4, nil
	case "ipv6":
		return KindIPv6, nil
	case "mac":
		return KindMAC, nil
	case "string":
		return KindString, nil
	case "skip":
		return KindSkip, nil
	default:
		return 0, fmt.Errorf("catalog: unknown semantic type %q", s)
	}
}

// ErrCatalogSyntax is returned when a catalog source cannot be parsed.
type ErrCatalogSyntax struct{ Err error }

func (e *ErrCatalogSyntax) Error() string { return fmt.Sprintf("catalog syntax error: %s", e.Err) }
func (e *ErrCatalogSyntax) Unwrap() error { return e.Err }

// ErrCatalogMissing is returned when an override path is specified but
// the file does not exist.
type ErrCatalogMissing struct{ Path string }

func (e *ErrCatalogMissing) Error() string {
	return fmt.Sprintf("catalog override not found: %s", e.Path)
}

type rawNetFlowV9File map[uint16]rawEntry

type rawIPFIXFile map[uint32]map[uint16]rawEntry

func decodeNetFlowV9(r io.Reader) (map[uint16]FieldDescriptor, error) {
	var raw rawNetFlowV9File
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ErrCatalogSyntax{err}
	}
	out := make(map[uint16]FieldDescriptor, len(raw))
	for fieldType, entry := range raw {
		d, err := entry.normalize()
		if err != nil {
			return nil, &ErrCatalogSyntax{err}
		}
		out[fieldType] = d
	}
	return out, nil
}

func decodeIPFIX(r io.Reader) (map[EnterpriseField]FieldDescriptor, error) {
	var raw rawIPFIXFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ErrCatalogSyntax{err}
	}
	out := make(map[EnterpriseField]FieldDescriptor)
	for enterpriseID, fields := range raw {
		for fieldType, entry := range fields {
			d, err := entry.normalize()
			if err != nil {
				return nil, &ErrCatalogSyntax{err}
			}
			out[EnterpriseField{enterpriseID, fieldType}] = d
		}
	}
	return out, nil
}

// LoadNetFlowV9 builds the NetFlow v9 catalog from the embedded default,
// optionally overridden (key-by-key) by the file at overridePath.
func LoadNetFlowV9(overridePath string) (*Catalog, error) {
	base, err := decodeNetFlowV9(defaultNetFlowV9Reader())
	if err != nil {
		return nil, err
	}
	if overridePath != "" {
		f, err := os.Open(overridePath)
		if err != nil {
			return nil, &ErrCatalogMissing{overridePath}
		}
		defer f.Close()
		override, err := decodeNetFlowV9(f)
		if err != nil {
			return nil, err
		}
		for k, v := range override {
			base[k] = v
		}
	}
	return &Catalog{netflowV9: base}, nil
}

// LoadIPFIX builds the IPFIX catalog from the embedded default,
// optionally overridden (key-by-key) by the file at overridePath.
func LoadIPFIX(overridePath string) (*Catalog, error) {
	base, err := decodeIPFIX(defaultIPFIXReader())
	if err != nil {
		return nil, err
	}
	if overridePath != "" {
		f, err := os.Open(overridePath)
		if err != nil {
			return nil, &ErrCatalogMissing{overridePath}
		}
		defer f.Close()
		override, err := decodeIPFIX(f)
		if err != nil {
			return nil, err
		}
		for k, v := range override {
			base[k] = v
		}
	}
	return &Catalog{ipfix: base}, nil
}
