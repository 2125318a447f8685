package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSwitchedV5NoCarry exercises the ordinary path where the
// unix_nsec remainder already exceeds the millis sub-second remainder,
// so no borrow from seconds is needed.
func TestSwitchedV5NoCarry(t *testing.T) {
	got := SwitchedV5(10000, 0, 500_000_000, 5000)
	require.Equal(t, "1969-12-31T23:59:55.500000Z", ISO8601(got))
}

// TestSwitchedV5NegativeCarry exercises the borrow branch: the millis
// sub-second remainder exceeds unix_nsec's, so a whole second is
// borrowed and micros wraps around 1,000,000.
func TestSwitchedV5NegativeCarry(t *testing.T) {
	got := SwitchedV5(6200, 0, 100_000, 5000)
	require.Equal(t, "1969-12-31T23:59:58.999900Z", ISO8601(got))
}

// TestSwitchedV9AwayFromBoundary exercises the ordinary v9 path where
// millis isn't an exact multiple of 1000.
func TestSwitchedV9AwayFromBoundary(t *testing.T) {
	got := SwitchedV9(6200, 0, 5000)
	require.Equal(t, "1969-12-31T23:59:59.999800Z", ISO8601(got))
}

// TestSwitchedV9AtBoundary exercises the exact-1000ms artifact this
// formula reproduces verbatim from the source implementation: micros
// comes out as 1,000,000 and rolls the printed fractional part into a
// full extra second rather than normalizing to zero.
func TestSwitchedV9AtBoundary(t *testing.T) {
	got := SwitchedV9(10000, 0, 5000)
	require.Equal(t, "1969-12-31T23:59:56.000000Z", ISO8601(got))
}

func TestIPFIXSecondsValue(t *testing.T) {
	got := IPFIXSeconds(5)
	require.Equal(t, "1970-01-01T00:00:05.000000Z", ISO8601(got))
}

func TestIPFIXSubSecondMilliseconds(t *testing.T) {
	got := IPFIXSubSecond(1500, 1_000)
	require.Equal(t, "1970-01-01T00:00:01.500000Z", ISO8601(got))
}

func TestIPFIXSubSecondMicroseconds(t *testing.T) {
	got := IPFIXSubSecond(2_250_000, 1_000_000)
	require.Equal(t, "1970-01-01T00:00:02.250000Z", ISO8601(got))
}

func TestIPFIXSubSecondNanoseconds(t *testing.T) {
	got := IPFIXSubSecond(3_123_456_000, 1_000_000_000)
	require.Equal(t, "1970-01-01T00:00:03.123456Z", ISO8601(got))
}
