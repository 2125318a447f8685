package record

import (
	"fmt"
	"net"
)

// MACAddress formats a net.HardwareAddr the way the rest of the pipeline
// expects flow fields to render in JSON: the colon-separated string
// form, not a base64-encoded byte slice.
type MACAddress net.HardwareAddr

func (m MACAddress) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", net.HardwareAddr(m).String())), nil
}

// IPAddress formats a net.IP the same way: dotted-quad or canonical
// IPv6 text, never raw bytes.
type IPAddress net.IP

func (a IPAddress) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", net.IP(a).String())), nil
}

// normalizeValue rewrites decoded values that need custom JSON
// rendering (MAC/IP addresses), leaving everything else (uints,
// strings) as-is for the standard encoder.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case net.HardwareAddr:
		return MACAddress(t)
	case net.IP:
		return IPAddress(t)
	default:
		return v
	}
}
