package collector

import "time"

// mute throttles one repeated warning/error log: after max occurrences
// within resetInterval, further Increment calls report muting until the
// interval rolls over.
type mute struct {
	windowStart   time.Time
	resetInterval time.Duration
	count         int
	max           int
	now           func() time.Time
}

func newMute(resetInterval time.Duration, max int) *mute {
	return &mute{
		resetInterval: resetInterval,
		max:           max,
		now:           time.Now,
	}
}

// Increment records one occurrence and reports whether it should be
// suppressed, plus how many occurrences were suppressed before it: on
// the first call after the window rolls over, those of the window that
// just ended; otherwise, those so far in the current window. A zero
// max or resetInterval disables throttling.
func (m *mute) Increment() (muted bool, skipped int) {
	if m.max == 0 || m.resetInterval == 0 {
		return false, 0
	}

	t := m.now()
	if m.windowStart.IsZero() {
		m.windowStart = t
	}
	if t.Sub(m.windowStart) > m.resetInterval {
		if m.count > m.max {
			skipped = m.count - m.max
		}
		m.count = 0
		m.windowStart = t
	}

	if m.count >= m.max {
		skipped = m.count - m.max
	}
	m.count++

	return m.count > m.max, skipped
}
