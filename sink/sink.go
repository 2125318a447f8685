// Package sink provides a registry of output drivers for decoded flow
// events, mirroring the transport driver-registry pattern: a sink is
// opaque to the collector, which only calls Send/Close on whatever
// driver was configured by name.
package sink

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/adelbot/logstash-codec-netflow/record"
)

var (
	drivers = make(map[string]Driver)
	lock    = &sync.RWMutex{}

	// ErrSink is the base error for sink failures.
	ErrSink = fmt.Errorf("sink error")
)

// Driver describes a sink plugin lifecycle and send method.
type Driver interface {
	Init() error              // open connections, files, producers...
	Send(e *record.Event) error
	Close() error
}

// loggingDriver is implemented by drivers that want the ambient
// *slog.Logger wired in before Init runs, the way KafkaDriver does.
type loggingDriver interface {
	SetLogger(*slog.Logger)
}

// DriverError wraps a driver-specific error with its sink name.
type DriverError struct {
	Driver string
	Err    error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s for %s sink", e.Err.Error(), e.Driver)
}

func (e *DriverError) Unwrap() []error {
	return []error{ErrSink, e.Err}
}

// Sink is a named sink wrapper used by the registry.
type Sink struct {
	Driver
	name string
}

// Send forwards an event to the driver and wraps errors with sink metadata.
func (s *Sink) Send(e *record.Event) error {
	if err := s.Driver.Send(e); err != nil {
		return &DriverError{s.name, err}
	}
	return nil
}

// Close calls the driver Close and wraps errors with sink metadata.
func (s *Sink) Close() error {
	if err := s.Driver.Close(); err != nil {
		return &DriverError{s.name, err}
	}
	return nil
}

// Register registers a sink driver under a name. Drivers register
// themselves from an init func, the way transport and format drivers
// do in the teacher's registries.
func Register(name string, d Driver) {
	lock.Lock()
	drivers[name] = d
	lock.Unlock()
}

// New wraps and initializes a driver directly, bypassing the registry.
// Useful for tests and for wiring a driver instance that was built
// programmatically rather than selected by name.
func New(name string, d Driver) (*Sink, error) {
	if err := d.Init(); err != nil {
		return nil, &DriverError{name, err}
	}
	return &Sink{d, name}, nil
}

// Find returns a configured, initialized sink by name. If logger is
// non-nil and the driver accepts one, it's wired in before Init runs.
func Find(name string, logger *slog.Logger) (*Sink, error) {
	lock.RLock()
	d, ok := drivers[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s not found", ErrSink, name)
	}

	if logger != nil {
		if ld, ok := d.(loggingDriver); ok {
			ld.SetLogger(logger)
		}
	}

	if err := d.Init(); err != nil {
		return nil, &DriverError{name, err}
	}
	return &Sink{d, name}, nil
}

// Names returns the list of registered sink driver names.
func Names() []string {
	lock.RLock()
	defer lock.RUnlock()
	names := make([]string, 0, len(drivers))
	for k := range drivers {
		names = append(names, k)
	}
	return names
}
