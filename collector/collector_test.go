package collector

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/adelbot/logstash-codec-netflow/cache"
	"github.com/adelbot/logstash-codec-netflow/catalog"
	"github.com/adelbot/logstash-codec-netflow/decoders/netflowlegacy"
	"github.com/adelbot/logstash-codec-netflow/record"
	"github.com/adelbot/logstash-codec-netflow/sink"
	"github.com/stretchr/testify/require"
)

type recordingDriver struct {
	mu     sync.Mutex
	events []*record.Event
}

func (d *recordingDriver) Init() error { return nil }
func (d *recordingDriver) Send(e *record.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}
func (d *recordingDriver) Close() error { return nil }

func (d *recordingDriver) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func testDecoder(t *testing.T) *record.Decoder {
	t.Helper()
	v9cat, err := catalog.LoadNetFlowV9("")
	require.NoError(t, err)
	ipfixCat, err := catalog.LoadIPFIX("")
	require.NoError(t, err)
	return &record.Decoder{
		V9Catalog:    v9cat,
		IPFIXCatalog: ipfixCat,
		Cache:        cache.New(time.Hour),
		Target:       "netflow",
		Versions:     map[uint16]bool{5: true, 9: true, 10: true},
	}
}

func TestCollectorEndToEndV5Datagram(t *testing.T) {
	driver := &recordingDriver{}
	s, err := sink.New("recording", driver)
	require.NoError(t, err)

	c, err := New(Config{
		Host:       "127.0.0.1",
		Port:       0,
		BufferSize: 1500,
		QueueSize:  16,
		Workers:    2,
		Decoder:    testDecoder(t),
		Sink:       s,
	})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	defer c.Stop()

	addr := c.listener.Addr().(*net.UDPAddr)
	conn, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer conn.Close()

	packet := &netflowlegacy.PacketNetFlowV5{
		Version:      5,
		FlowSequence: 1,
		Records: []netflowlegacy.RecordsNetFlowV5{
			{First: 1000, Last: 2000},
		},
	}
	raw, err := netflowlegacy.EncodeMessage(packet)
	require.NoError(t, err)

	_, err = conn.Write(raw)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return driver.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewRejectsMissingDecoder(t *testing.T) {
	driver := &recordingDriver{}
	s, err := sink.New("recording", driver)
	require.NoError(t, err)

	_, err = New(Config{Host: "127.0.0.1", Port: 2055, Sink: s})
	require.Error(t, err)
}

func TestNewRejectsMissingSink(t *testing.T) {
	_, err := New(Config{Host: "127.0.0.1", Port: 2055, Decoder: testDecoder(t)})
	require.Error(t, err)
}
