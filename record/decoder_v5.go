package record

import (
	"bytes"
	"net"
	"time"

	"github.com/adelbot/logstash-codec-netflow/decoders/netflowlegacy"
)

func (d *Decoder) decodeV5(buf *bytes.Buffer, sourceHost string) []*Event {
	packet := netflowlegacy.PacketNetFlowV5{Version: 5}
	if err := netflowlegacy.DecodeMessage(buf, &packet); err != nil {
		d.metrics().DecodeFailure(5)
		return d.failure(sourceHost, err.Error())
	}

	timestamp := time.Unix(int64(packet.UnixSecs), int64(packet.UnixNSecs)).UTC()

	events := make([]*Event, 0, len(packet.Records))
	for _, rec := range packet.Records {
		e := New(d.target(), sourceHost, timestamp)
		e.SetHeader("version", packet.Version)
		e.SetHeader("flow_seq_num", packet.FlowSequence)
		e.SetHeader("engine_type", packet.EngineType)
		e.SetHeader("engine_id", packet.EngineId)
		e.SetHeader("sampling_algorithm", packet.SamplingInterval>>14)
		e.SetHeader("sampling_interval", packet.SamplingInterval&0x3FFF)

		e.SetField("srcaddr", ipv4FromUint32(rec.SrcAddr))
		e.SetField("dstaddr", ipv4FromUint32(rec.DstAddr))
		e.SetField("nexthop", ipv4FromUint32(rec.NextHop))
		e.SetField("input", rec.Input)
		e.SetField("output", rec.Output)
		e.SetField("in_pkts", rec.DPkts)
		e.SetField("in_bytes", rec.DOctets)
		e.SetField("srcport", rec.SrcPort)
		e.SetField("dstport", rec.DstPort)
		e.SetField("tcp_flags", rec.TCPFlags)
		e.SetField("protocol", rec.Proto)
		e.SetField("tos", rec.Tos)
		e.SetField("src_as", rec.SrcAS)
		e.SetField("dst_as", rec.DstAS)
		e.SetField("src_mask", rec.SrcMask)
		e.SetField("dst_mask", rec.DstMask)

		e.SetField("first_switched", ISO8601(SwitchedV5(packet.SysUptime, packet.UnixSecs, packet.UnixNSecs, rec.First)))
		e.SetField("last_switched", ISO8601(SwitchedV5(packet.SysUptime, packet.UnixSecs, packet.UnixNSecs, rec.Last)))

		events = append(events, e)
		d.metrics().EventEmitted("netflowv5")
	}
	return events
}

func ipv4FromUint32(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
