package collector

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/adelbot/logstash-codec-netflow/record"
	"github.com/adelbot/logstash-codec-netflow/sink"
)

// Pool is the decoder worker pool: a fixed number of goroutines drain
// the listener's dispatch channel, decode each datagram into flow
// events and hand them to the sink.
type Pool struct {
	workers  int
	listener *Listener
	decoder  *record.Decoder
	sink     *sink.Sink
	logger   *slog.Logger

	sendFailures *mute

	wg sync.WaitGroup
}

// NewPool builds a worker pool of the given size, reading from l and
// writing decoded events to s.
func NewPool(workers int, l *Listener, decoder *record.Decoder, s *sink.Sink, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		workers:      workers,
		listener:     l,
		decoder:      decoder,
		sink:         s,
		logger:       logger,
		sendFailures: newMute(time.Minute, 10),
	}
}

// Start launches the worker goroutines. Each runs until the listener's
// dispatch channel is closed.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for pkt := range p.listener.Dispatch() {
		host := ""
		port := 0
		if pkt.src != nil {
			host = pkt.src.IP.String()
			port = pkt.src.Port
		}

		events := p.decodeRecovering(pkt.payload[:pkt.size], host, port)
		p.listener.release(pkt)

		for _, e := range events {
			if err := p.sink.Send(e); err != nil {
				if muted, skipped := p.sendFailures.Increment(); !muted {
					p.logger.Warn("collector: sink send failed", "error", err, "skipped_since_last_log", skipped)
				}
			}
		}
	}
}

// decodeRecovering wraps Decode in a catch-all so a panic from a
// malformed or adversarial datagram never takes the worker down with
// it. A recovered panic is logged with its stack and turned into the
// same kind of decode-failure event Decode itself returns for
// malformed input.
func (p *Pool) decodeRecovering(payload []byte, host string, port int) (events []*record.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("collector: recovered panic in decode pipeline", "error", r, "stack", string(debug.Stack()))
			events = p.decoder.PanicEvent(host, r)
		}
	}()
	return p.decoder.Decode(payload, host, port)
}

// Wait blocks until every worker has drained the dispatch channel and
// exited, i.e. until the listener has been stopped and its backlog
// processed.
func (p *Pool) Wait() {
	p.wg.Wait()
}
