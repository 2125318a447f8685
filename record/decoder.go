package record

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adelbot/logstash-codec-netflow/cache"
	"github.com/adelbot/logstash-codec-netflow/catalog"
	"github.com/adelbot/logstash-codec-netflow/decoders/netflow"
)

// Decoder is the Record Decoder: it ties the Field Catalog, the
// decoders/netflow PDU Parser and Field Resolver, and the Template
// Cache together into one entry point, Decode, that turns a raw
// datagram into a slice of flow events (or a single decode-failure
// event).
type Decoder struct {
	V9Catalog    *catalog.Catalog
	IPFIXCatalog *catalog.Catalog
	Cache        *cache.Cache
	Target       string          // container field name, default "netflow"
	Versions     map[uint16]bool // accepted versions subset of {5, 9, 10}
	Log          *slog.Logger
	Metrics      Metrics
}

func (d *Decoder) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

func (d *Decoder) metrics() Metrics {
	if d.Metrics != nil {
		return d.Metrics
	}
	return noopMetrics{}
}

// noteTemplateRejected records a rejected template and, when the
// rejection was specifically an unsupported field the catalog has no
// entry for, also counts it against UnsupportedField so the two
// rejection causes (unknown field vs. unsupported encoding) are
// distinguishable in the metrics.
func (d *Decoder) noteTemplateRejected(protocol string, err error) {
	d.metrics().TemplateRejected(protocol)
	var unsupported *netflow.ErrUnsupportedField
	if errors.As(err, &unsupported) {
		d.metrics().UnsupportedField(protocol)
	}
}

func (d *Decoder) target() string {
	if d.Target != "" {
		return d.Target
	}
	return "netflow"
}

// Decode implements the PDU Parser's version dispatch (§4.4): it reads
// the version, rejects anything outside the configured accept-set, and
// hands the rest of the datagram to the matching protocol decoder.
// Malformed-binary failures anywhere downstream produce exactly one
// decode-failure event appended to whatever valid events were already
// produced from earlier, well-formed flowsets in the same datagram;
// they never panic out of this call.
func (d *Decoder) Decode(payload []byte, sourceHost string, sourcePort int) []*Event {
	if len(payload) < 2 {
		d.metrics().DecodeFailure(0)
		return d.failure(sourceHost, "datagram shorter than the version field")
	}
	version := uint16(payload[0])<<8 | uint16(payload[1])
	if !d.Versions[version] {
		d.metrics().DecodeFailure(version)
		return d.failure(sourceHost, fmt.Sprintf("version %d not in accepted set", version))
	}

	buf := bytes.NewBuffer(payload[2:])
	switch version {
	case 5:
		return d.decodeV5(buf, sourceHost)
	case 9:
		return d.decodeV9(buf, sourceHost, sourcePort)
	case 10:
		return d.decodeIPFIX(buf, sourceHost, sourcePort)
	default:
		d.metrics().DecodeFailure(version)
		return d.failure(sourceHost, fmt.Sprintf("unsupported version %d", version))
	}
}

func (d *Decoder) failure(sourceHost, message string) []*Event {
	return []*Event{NewFailure(d.target(), sourceHost, time.Now().UTC(), message)}
}

// PanicEvent builds the decode-failure event a caller should emit in
// place of whatever Decode would have returned when it recovers a
// panic from this call. Decode itself never panics out past its own
// call frame for malformed input; this exists for callers (the
// collector's worker pool) that wrap Decode in a recover as a final
// backstop per the worker-scope error propagation policy.
func (d *Decoder) PanicEvent(sourceHost string, recovered interface{}) []*Event {
	d.metrics().DecodeFailure(0)
	return d.failure(sourceHost, fmt.Sprintf("recovered panic: %v", recovered))
}
