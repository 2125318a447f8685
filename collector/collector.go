// Package collector wires the UDP listener, the decoder worker pool
// and a sink into one manageable lifecycle.
package collector

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adelbot/logstash-codec-netflow/record"
	"github.com/adelbot/logstash-codec-netflow/sink"
)

// Config configures a Collector.
type Config struct {
	Host       string
	Port       int
	BufferSize int // per-datagram read buffer size
	QueueSize  int // dispatch channel depth
	Workers    int // decoder worker pool size

	Decoder *record.Decoder
	Sink    *sink.Sink
	Logger  *slog.Logger

	// DropLogInterval/DropLogMax throttle the collector-wide "dropped
	// datagrams" warning, the way the worker pool throttles its sink
	// send-failure warnings.
	DropLogInterval time.Duration
	DropLogMax      int
}

// Collector owns one UDP listener and its worker pool.
type Collector struct {
	host, port int
	listener   *Listener
	pool       *Pool
	logger     *slog.Logger

	dropped *mute
}

// New validates cfg and builds a Collector. It does not yet open the
// socket; call Start for that. Port 0 binds an ephemeral port.
func New(cfg Config) (*Collector, error) {
	if cfg.Decoder == nil {
		return nil, errors.New("collector: decoder is required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("collector: sink is required")
	}
	if cfg.Port < 0 {
		return nil, fmt.Errorf("collector: invalid port %d", cfg.Port)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := NewListener(cfg.Host, cfg.Port, cfg.BufferSize, cfg.QueueSize)
	l.Logger = logger
	p := NewPool(cfg.Workers, l, cfg.Decoder, cfg.Sink, logger)

	dropInterval := cfg.DropLogInterval
	if dropInterval == 0 {
		dropInterval = time.Minute
	}
	dropMax := cfg.DropLogMax
	if dropMax == 0 {
		dropMax = 1
	}

	c := &Collector{
		listener: l,
		pool:     p,
		logger:   logger,
		dropped:  newMute(dropInterval, dropMax),
	}
	l.OnDrop(c.logDrop)
	return c, nil
}

func (c *Collector) logDrop() {
	if muted, skipped := c.dropped.Increment(); !muted {
		c.logger.Warn("collector: dropped datagrams, workers falling behind", "skipped_since_last_log", skipped)
	}
}

// Start opens the UDP socket and launches the worker pool. It returns
// once the socket is bound; decoding happens asynchronously.
func (c *Collector) Start() error {
	if err := c.listener.Start(); err != nil {
		return err
	}
	c.pool.Start()
	c.logger.Info("collector: listening", "host", c.listener.host, "port", c.listener.port)
	return nil
}

// Stop closes the socket, waits for the worker pool to drain whatever
// was already queued, then returns.
func (c *Collector) Stop() {
	c.listener.Stop()
	c.pool.Wait()
}
