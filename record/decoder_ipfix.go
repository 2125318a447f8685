package record

import (
	"bytes"
	"time"

	"github.com/adelbot/logstash-codec-netflow/cache"
	"github.com/adelbot/logstash-codec-netflow/decoders/netflow"
)

func (d *Decoder) decodeIPFIX(buf *bytes.Buffer, sourceHost string, sourcePort int) []*Event {
	header, err := netflow.DecodeHeader(10, buf)
	if err != nil {
		d.metrics().DecodeFailure(10)
		return d.failure(sourceHost, err.Error())
	}

	var events []*Event
	for buf.Len() > 0 {
		fsh, err := netflow.DecodeFlowSetHeader(buf)
		if err != nil {
			d.metrics().DecodeFailure(10)
			return append(events, d.failure(sourceHost, err.Error())...)
		}
		bodyLen := int(fsh.Length) - 4
		if bodyLen < 0 || bodyLen > buf.Len() {
			d.metrics().DecodeFailure(10)
			return append(events, d.failure(sourceHost, "IPFIX flowset length exceeds remaining datagram")...)
		}
		body := bytes.NewBuffer(buf.Next(bodyLen))

		switch {
		case fsh.ID == 2:
			if err := d.ingestTemplatesIPFIX(body, header, sourceHost, sourcePort); err != nil {
				d.metrics().DecodeFailure(10)
				return append(events, d.failure(sourceHost, err.Error())...)
			}
		case fsh.ID == 3:
			if err := d.ingestOptionsTemplatesIPFIX(body, header, sourceHost, sourcePort); err != nil {
				d.metrics().DecodeFailure(10)
				return append(events, d.failure(sourceHost, err.Error())...)
			}
		case fsh.ID >= 256:
			events = append(events, d.decodeDataFlowSetIPFIX(body.Bytes(), fsh.ID, header, sourceHost, sourcePort)...)
		default:
			d.logger().Warn("netflow: unrecognized IPFIX flowset id", "flowset_id", fsh.ID)
		}
	}
	return events
}

func (d *Decoder) ingestTemplatesIPFIX(body *bytes.Buffer, header netflow.Header, sourceHost string, sourcePort int) error {
	records, err := netflow.DecodeTemplateSet(body, true)
	if err != nil {
		return err
	}
	for _, rec := range records {
		tmpl, err := netflow.CompileTemplate(d.IPFIXCatalog, rec.Fields, true)
		if err != nil {
			d.logger().Warn("netflow: IPFIX template rejected", "template_id", rec.TemplateID, "error", err)
			d.noteTemplateRejected("ipfix", err)
			continue
		}
		key := cache.Key{SourceID: header.SourceID, TemplateID: rec.TemplateID, Host: sourceHost, Port: sourcePort}
		d.Cache.Put(key, tmpl)
		d.metrics().TemplateCached("ipfix")
	}
	return nil
}

func (d *Decoder) ingestOptionsTemplatesIPFIX(body *bytes.Buffer, header netflow.Header, sourceHost string, sourcePort int) error {
	records, err := netflow.DecodeOptionsTemplateSetIPFIX(body)
	if err != nil {
		return err
	}
	for _, rec := range records {
		tmpl, err := netflow.CompileOptionsTemplateIPFIX(d.IPFIXCatalog, rec.Scopes, rec.Options)
		if err != nil {
			d.logger().Warn("netflow: IPFIX options template rejected", "template_id", rec.TemplateID, "error", err)
			d.noteTemplateRejected("ipfix", err)
			continue
		}
		key := cache.Key{SourceID: header.SourceID, TemplateID: rec.TemplateID, Host: sourceHost, Port: sourcePort}
		d.Cache.Put(key, tmpl)
		d.metrics().TemplateCached("ipfix")
	}
	return nil
}

func (d *Decoder) decodeDataFlowSetIPFIX(payload []byte, flowsetID uint16, header netflow.Header, sourceHost string, sourcePort int) []*Event {
	key := cache.Key{SourceID: header.SourceID, TemplateID: flowsetID, Host: sourceHost, Port: sourcePort}
	cached, ok := d.Cache.Get(key)
	if !ok {
		d.logger().Warn("netflow: IPFIX data flowset references unknown template", "template_id", flowsetID)
		d.metrics().TemplateCacheMiss("ipfix")
		return nil
	}

	timestamp := time.Unix(int64(header.UnixSeconds), 0).UTC()

	switch tmpl := cached.(type) {
	case *netflow.CompiledTemplate:
		records, err := netflow.SplitDataRecords(payload, tmpl.Width)
		if err != nil {
			d.logger().Warn("netflow: IPFIX template/payload width mismatch", "template_id", flowsetID, "error", err)
			d.metrics().WidthMismatch("ipfix")
			return nil
		}
		events := make([]*Event, 0, len(records))
		for _, raw := range records {
			values, err := tmpl.Decode(raw)
			if err != nil {
				d.logger().Warn("netflow: IPFIX record decode failed", "template_id", flowsetID, "error", err)
				continue
			}
			e := New(d.target(), sourceHost, timestamp)
			e.SetHeader("version", header.Version)
			d.applyIPFIXFields(e, values)
			events = append(events, e)
			d.metrics().EventEmitted("ipfix")
		}
		return events
	case *netflow.CompiledOptionsTemplate:
		return d.decodeOptionsDataIPFIX(payload, tmpl, header, sourceHost, timestamp)
	default:
		return nil
	}
}

func (d *Decoder) decodeOptionsDataIPFIX(payload []byte, tmpl *netflow.CompiledOptionsTemplate, header netflow.Header, sourceHost string, timestamp time.Time) []*Event {
	width := tmpl.Scopes.Width + tmpl.Options.Width
	if width <= 0 {
		return nil
	}
	records, err := netflow.SplitDataRecords(payload, width)
	if err != nil {
		d.logger().Warn("netflow: IPFIX options template/payload width mismatch", "error", err)
		d.metrics().WidthMismatch("ipfix")
		return nil
	}

	events := make([]*Event, 0, len(records))
	for _, raw := range records {
		scopeValues, err := tmpl.Scopes.Decode(raw[:tmpl.Scopes.Width])
		if err != nil {
			continue
		}
		optionValues, err := tmpl.Options.Decode(raw[tmpl.Scopes.Width:])
		if err != nil {
			continue
		}

		e := New(d.target(), sourceHost, timestamp)
		e.SetHeader("version", header.Version)
		d.applyIPFIXFields(e, scopeValues)
		d.applyIPFIXFields(e, optionValues)
		events = append(events, e)
		d.metrics().EventEmitted("ipfix")
	}
	return events
}

func (d *Decoder) applyIPFIXFields(e *Event, values []netflow.NamedValue) {
	for _, v := range values {
		raw, isUint := v.Value.(uint64)
		if isUint {
			switch v.Name {
			case "flowStartSeconds", "flowEndSeconds":
				e.SetField(v.Name, ISO8601(IPFIXSeconds(raw)))
				continue
			case "flowStartMilliseconds", "flowEndMilliseconds":
				e.SetField(v.Name, ISO8601(IPFIXSubSecond(raw, 1_000)))
				continue
			case "flowStartMicroseconds", "flowEndMicroseconds":
				e.SetField(v.Name, ISO8601(IPFIXSubSecond(raw, 1_000_000)))
				continue
			case "flowStartNanoseconds", "flowEndNanoseconds":
				e.SetField(v.Name, ISO8601(IPFIXSubSecond(raw, 1_000_000_000)))
				continue
			}
		}
		e.SetField(v.Name, v.Value)
	}
}
