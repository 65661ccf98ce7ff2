package nostr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRandomizedTimestamp_WithinJitterWindow(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	clock := func() time.Time { return fixed }

	for i := 0; i < 50; i++ {
		ts, err := randomizedTimestamp(clock)
		require.NoError(t, err)
		require.GreaterOrEqual(t, ts, fixed.Unix()-timestampJitterSeconds)
		require.LessOrEqual(t, ts, fixed.Unix()+timestampJitterSeconds)
	}
}

func TestRealTimestamp_MatchesClock(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	clock := func() time.Time { return fixed }
	require.Equal(t, fixed.Unix(), realTimestamp(clock))
}
