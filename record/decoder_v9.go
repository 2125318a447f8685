package record

import (
	"bytes"
	"strings"
	"time"

	"github.com/adelbot/logstash-codec-netflow/cache"
	"github.com/adelbot/logstash-codec-netflow/decoders/netflow"
)

func (d *Decoder) decodeV9(buf *bytes.Buffer, sourceHost string, sourcePort int) []*Event {
	header, err := netflow.DecodeHeader(9, buf)
	if err != nil {
		d.metrics().DecodeFailure(9)
		return d.failure(sourceHost, err.Error())
	}

	var events []*Event
	for buf.Len() > 0 {
		fsh, err := netflow.DecodeFlowSetHeader(buf)
		if err != nil {
			d.metrics().DecodeFailure(9)
			return append(events, d.failure(sourceHost, err.Error())...)
		}
		bodyLen := int(fsh.Length) - 4
		if bodyLen < 0 || bodyLen > buf.Len() {
			d.metrics().DecodeFailure(9)
			return append(events, d.failure(sourceHost, "v9 flowset length exceeds remaining datagram")...)
		}
		body := bytes.NewBuffer(buf.Next(bodyLen))

		switch {
		case fsh.ID == 0:
			if err := d.ingestTemplatesV9(body, header, sourceHost, sourcePort); err != nil {
				d.metrics().DecodeFailure(9)
				return append(events, d.failure(sourceHost, err.Error())...)
			}
		case fsh.ID == 1:
			if err := d.ingestOptionsTemplatesV9(body, header, sourceHost, sourcePort); err != nil {
				d.metrics().DecodeFailure(9)
				return append(events, d.failure(sourceHost, err.Error())...)
			}
		case fsh.ID >= 256:
			events = append(events, d.decodeDataFlowSetV9(body.Bytes(), fsh.ID, header, sourceHost, sourcePort)...)
		default:
			d.logger().Warn("netflow: unrecognized v9 flowset id", "flowset_id", fsh.ID)
		}
	}
	return events
}

func (d *Decoder) ingestTemplatesV9(body *bytes.Buffer, header netflow.Header, sourceHost string, sourcePort int) error {
	records, err := netflow.DecodeTemplateSet(body, false)
	if err != nil {
		return err
	}
	for _, rec := range records {
		tmpl, err := netflow.CompileTemplate(d.V9Catalog, rec.Fields, false)
		if err != nil {
			d.logger().Warn("netflow: v9 template rejected", "template_id", rec.TemplateID, "error", err)
			d.noteTemplateRejected("netflowv9", err)
			continue
		}
		key := cache.Key{SourceID: header.SourceID, TemplateID: rec.TemplateID, Host: sourceHost, Port: sourcePort}
		d.Cache.Put(key, tmpl)
		d.metrics().TemplateCached("netflowv9")
	}
	return nil
}

func (d *Decoder) ingestOptionsTemplatesV9(body *bytes.Buffer, header netflow.Header, sourceHost string, sourcePort int) error {
	records, err := netflow.DecodeOptionsTemplateSetV9(body)
	if err != nil {
		return err
	}
	for _, rec := range records {
		tmpl, err := netflow.CompileOptionsTemplateV9(d.V9Catalog, rec.Scopes, rec.Options)
		if err != nil {
			d.logger().Warn("netflow: v9 options template rejected", "template_id", rec.TemplateID, "error", err)
			d.noteTemplateRejected("netflowv9", err)
			continue
		}
		key := cache.Key{SourceID: header.SourceID, TemplateID: rec.TemplateID, Host: sourceHost, Port: sourcePort}
		d.Cache.Put(key, tmpl)
		d.metrics().TemplateCached("netflowv9")
	}
	return nil
}

func (d *Decoder) decodeDataFlowSetV9(payload []byte, flowsetID uint16, header netflow.Header, sourceHost string, sourcePort int) []*Event {
	key := cache.Key{SourceID: header.SourceID, TemplateID: flowsetID, Host: sourceHost, Port: sourcePort}
	cached, ok := d.Cache.Get(key)
	if !ok {
		d.logger().Warn("netflow: v9 data flowset references unknown template", "template_id", flowsetID)
		d.metrics().TemplateCacheMiss("netflowv9")
		return nil
	}

	switch tmpl := cached.(type) {
	case *netflow.CompiledTemplate:
		records, err := netflow.SplitDataRecords(payload, tmpl.Width)
		if err != nil {
			d.logger().Warn("netflow: v9 template/payload width mismatch", "template_id", flowsetID, "error", err)
			d.metrics().WidthMismatch("netflowv9")
			return nil
		}
		events := make([]*Event, 0, len(records))
		for _, raw := range records {
			values, err := tmpl.Decode(raw)
			if err != nil {
				d.logger().Warn("netflow: v9 record decode failed", "template_id", flowsetID, "error", err)
				continue
			}
			e := New(d.target(), sourceHost, time.Unix(int64(header.UnixSeconds), 0).UTC())
			e.SetHeader("version", header.Version)
			e.SetHeader("flow_seq_num", header.SequenceNum)
			e.SetHeader("flowset_id", flowsetID)
			d.applyV9Fields(e, header, values)
			events = append(events, e)
			d.metrics().EventEmitted("netflowv9")
		}
		return events
	case *netflow.CompiledOptionsTemplate:
		return d.decodeOptionsDataV9(payload, tmpl, flowsetID, header, sourceHost)
	default:
		return nil
	}
}

func (d *Decoder) decodeOptionsDataV9(payload []byte, tmpl *netflow.CompiledOptionsTemplate, flowsetID uint16, header netflow.Header, sourceHost string) []*Event {
	width := tmpl.Scopes.Width + tmpl.Options.Width
	if width <= 0 {
		return nil
	}
	records, err := netflow.SplitDataRecords(payload, width)
	if err != nil {
		d.logger().Warn("netflow: v9 options template/payload width mismatch", "template_id", flowsetID, "error", err)
		d.metrics().WidthMismatch("netflowv9")
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

		e := New(d.target(), sourceHost, time.Unix(int64(header.UnixSeconds), 0).UTC())
		e.SetHeader("version", header.Version)
		e.SetHeader("flow_seq_num", header.SequenceNum)
		e.SetHeader("flowset_id", flowsetID)
		for _, v := range scopeValues {
			e.SetField(v.Name, v.Value)
		}
		d.applyV9Fields(e, header, optionValues)
		events = append(events, e)
		d.metrics().EventEmitted("netflowv9")
	}
	return events
}

func (d *Decoder) applyV9Fields(e *Event, header netflow.Header, values []netflow.NamedValue) {
	for _, v := range values {
		if strings.HasSuffix(v.Name, "_switched") {
			if raw, ok := v.Value.(uint64); ok {
				ts := SwitchedV9(header.UptimeMs, header.UnixSeconds, uint32(raw))
				e.SetField(v.Name, ISO8601(ts))
				continue
			}
		}
		e.SetField(v.Name, v.Value)
	}
}
