package sink

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/adelbot/logstash-codec-netflow/record"
)

// StdoutDriver writes one JSON-encoded event per line to a writer,
// defaulting to os.Stdout. It is the default sink: useful on its own
// for piping into another collector, and as a reference Driver
// implementation for the registry.
type StdoutDriver struct {
	w   io.Writer
	mu  sync.Mutex
	buf *bufio.Writer
}

func (d *StdoutDriver) Init() error {
	if d.w == nil {
		d.w = os.Stdout
	}
	d.buf = bufio.NewWriter(d.w)
	return nil
}

func (d *StdoutDriver) Send(e *record.Event) error {
	out, err := json.Marshal(e)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.buf.Write(out); err != nil {
		return err
	}
	if err := d.buf.WriteByte('\n'); err != nil {
		return err
	}
	return d.buf.Flush()
}

func (d *StdoutDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf != nil {
		return d.buf.Flush()
	}
	return nil
}

func init() {
	Register("stdout", &StdoutDriver{})
}
