package collector

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	reuseport "github.com/libp2p/go-reuseport"
)

// minReadBackoff/maxReadBackoff bound the delay before the listener
// reopens its socket after a read error. The delay doubles on
// consecutive failures and resets once a read succeeds.
const (
	minReadBackoff = 50 * time.Millisecond
	maxReadBackoff = 5 * time.Second
)

// packet is a single received datagram, pooled to avoid a per-packet
// allocation on the hot read path.
type packet struct {
	src     *net.UDPAddr
	size    int
	payload []byte
}

// Listener reads UDP datagrams from one socket and pushes them onto a
// bounded dispatch channel for the worker pool to drain. A full
// dispatch channel means the workers can't keep up; the listener drops
// the datagram rather than blocking the socket read, so one slow
// consumer cycle doesn't cause further datagrams to be lost to kernel
// buffer overflow instead.
type Listener struct {
	host string
	port int

	pool     sync.Pool
	dispatch chan *packet

	mu     sync.Mutex
	conn   *net.UDPConn
	stopCh chan struct{}
	wg     sync.WaitGroup

	// Logger receives a warning for every non-shutdown read error and
	// an error if reopening the socket afterward also fails. Defaults
	// to slog.Default() when nil.
	Logger *slog.Logger

	dropped func()
}

// NewListener builds a Listener bound to host:port. bufferSize sets the
// per-packet read buffer (9000 comfortably covers jumbo-frame NetFlow
// exporters); queueSize bounds the dispatch channel depth.
func NewListener(host string, port, bufferSize, queueSize int) *Listener {
	if bufferSize <= 0 {
		bufferSize = 9000
	}
	l := &Listener{
		host:     host,
		port:     port,
		dispatch: make(chan *packet, queueSize),
		stopCh:   make(chan struct{}),
	}
	l.pool.New = func() any {
		return &packet{payload: make([]byte, bufferSize)}
	}
	return l
}

// OnDrop registers a callback invoked once per dropped datagram.
func (l *Listener) OnDrop(f func()) {
	l.dropped = f
}

func (l *Listener) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Addr returns the bound local address. Only valid after Start; mainly
// useful in tests that bind to port 0 and need to discover the
// ephemeral port the OS assigned. Changes if the listener has reopened
// its socket after a read error.
func (l *Listener) Addr() net.Addr {
	conn := l.getConn()
	if conn == nil {
		return nil
	}
	return conn.LocalAddr()
}

func (l *Listener) getConn() *net.UDPConn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}

func (l *Listener) setConn(conn *net.UDPConn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}

// Dispatch returns the channel workers read received packets from.
func (l *Listener) Dispatch() <-chan *packet {
	return l.dispatch
}

// release returns a packet's buffer to the pool once a worker is done
// with it.
func (l *Listener) release(p *packet) {
	l.pool.Put(p)
}

// open binds (or, via SO_REUSEPORT, rebinds) the listening socket.
func (l *Listener) open() error {
	conn, err := reuseport.ListenPacket("udp", fmt.Sprintf("%s:%d", l.host, l.port))
	if err != nil {
		return err
	}
	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		conn.Close()
		return fmt.Errorf("collector: reuseport returned a non-UDP connection")
	}
	l.setConn(udpConn)
	return nil
}

// Start opens the UDP socket and begins the read loop in a background
// goroutine. It blocks until the socket is open (or failed to open) so
// callers know the listener is ready to receive before Start returns.
func (l *Listener) Start() error {
	if err := l.open(); err != nil {
		return err
	}

	// Closing the socket is what unblocks a pending ReadFromUDP
	// immediately on Stop, rather than polling a read deadline.
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		<-l.stopCh
		if conn := l.getConn(); conn != nil {
			conn.Close()
		}
	}()

	l.wg.Add(1)
	go l.receive()

	return nil
}

func (l *Listener) isStopping() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

// receive is the read loop. A socket error caused by Stop closing the
// connection ends the loop silently; any other error is logged and the
// listener reopens its socket after a short backoff instead of exiting,
// so a transient error on a misbehaving NIC or a momentary ENOBUFS
// doesn't end datagram collection for the rest of the process.
func (l *Listener) receive() {
	defer l.wg.Done()
	backoff := minReadBackoff
	for {
		conn := l.getConn()
		pkt := l.pool.Get().(*packet)
		n, src, err := conn.ReadFromUDP(pkt.payload)
		if err != nil {
			l.pool.Put(pkt)
			if l.isStopping() {
				return
			}

			l.logger().Warn("collector: UDP read error, reopening listener", "error", err, "backoff", backoff)

			select {
			case <-l.stopCh:
				return
			case <-time.After(backoff):
			}
			if backoff < maxReadBackoff {
				backoff *= 2
				if backoff > maxReadBackoff {
					backoff = maxReadBackoff
				}
			}

			if l.isStopping() {
				return
			}
			if reopenErr := l.open(); reopenErr != nil {
				l.logger().Error("collector: failed to reopen UDP listener", "error", reopenErr)
			}
			continue
		}

		backoff = minReadBackoff
		if n == 0 {
			l.pool.Put(pkt)
			continue
		}
		pkt.size = n
		pkt.src = src

		select {
		case l.dispatch <- pkt:
		default:
			l.pool.Put(pkt)
			if l.dropped != nil {
				l.dropped()
			}
		}
	}
}

// Stop closes the socket, waits for the read loop to exit, then closes
// the dispatch channel so workers can drain whatever was already
// buffered and exit on their own.
func (l *Listener) Stop() {
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
	l.wg.Wait()
	close(l.dispatch)
}
