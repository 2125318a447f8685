package record

import "time"

// SwitchedV5 synthesizes an absolute timestamp from a v5 `_switched`
// field (milliseconds since device boot) against the v5 header's boot
// uptime and export time. unix_nsec is truncated to whole
// microseconds, so the result has microsecond resolution.
func SwitchedV5(uptimeMs, unixSec, unixNsec, fieldValue uint32) time.Time {
	millis := int64(uptimeMs) - int64(fieldValue)
	seconds := int64(unixSec) - millis/1000
	micros := int64(unixNsec)/1000 - millis%1000
	if micros < 0 {
		seconds--
		micros += 1_000_000
	}
	return time.Unix(seconds, micros*1000).UTC()
}

// SwitchedV9 synthesizes an absolute timestamp from a v9 `_switched`
// field. v9 carries no sub-second export time, so this reproduces the
// source formula verbatim rather than "fixing" it: when millis is an
// exact multiple of 1000, micros comes out as 1_000_000 and rolls the
// printed timestamp's fractional part to a full extra second rather
// than normalizing to zero.
func SwitchedV9(uptimeMs, unixSec, fieldValue uint32) time.Time {
	millis := int64(uptimeMs) - int64(fieldValue)
	seconds := int64(unixSec) - millis/1000
	micros := 1_000_000 - millis%1000
	return time.Unix(seconds, micros*1000).UTC()
}

// IPFIXSeconds converts a flowStartSeconds/flowEndSeconds field value
// (whole seconds since the epoch) to a time.Time.
func IPFIXSeconds(value uint64) time.Time {
	return time.Unix(int64(value), 0).UTC()
}

// IPFIXSubSecond converts a flowStart/flowEnd Milli/Micro/Nanoseconds
// field value, expressed as divisor ticks per second (1e3, 1e6, 1e9
// respectively), to a time.Time.
func IPFIXSubSecond(value uint64, divisor int64) time.Time {
	whole := int64(value) / divisor
	remainder := int64(value) % divisor
	nanos := remainder * (1_000_000_000 / divisor)
	return time.Unix(whole, nanos).UTC()
}

// ISO8601 renders t using the RFC 3339 profile with microsecond
// precision, the format every synthesized timestamp field is stored
// as.
func ISO8601(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000Z07:00")
}
