package record

// Metrics receives counters for the ambient observability layer around
// the Record Decoder. A nil Decoder.Metrics falls back to noopMetrics,
// so wiring a Prometheus-backed implementation is optional.
type Metrics interface {
	DecodeFailure(version uint16)
	UnsupportedField(protocol string)
	TemplateCached(protocol string)
	TemplateRejected(protocol string)
	TemplateCacheMiss(protocol string)
	WidthMismatch(protocol string)
	EventEmitted(protocol string)
}

type noopMetrics struct{}

func (noopMetrics) DecodeFailure(uint16)          {}
func (noopMetrics) UnsupportedField(string)       {}
func (noopMetrics) TemplateCached(string)         {}
func (noopMetrics) TemplateRejected(string)       {}
func (noopMetrics) TemplateCacheMiss(string)      {}
func (noopMetrics) WidthMismatch(string)          {}
func (noopMetrics) EventEmitted(string)           {}
