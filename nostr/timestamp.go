package nostr

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

const timestampJitterSeconds = 900

// Clock lets tests substitute a fixed "now"; production code leaves it
// nil and gets time.Now.
type Clock func() time.Time

var defaultClock Clock = time.Now

// randomizedTimestamp returns a timestamp drawn uniformly from
// [now-900s, now+900s], used by NIP-17 seals and NIP-59 gift-wraps to
// decorrelate the wire-visible send time from the real one. Never applied
// to the rumor itself, which carries the true timestamp.
func randomizedTimestamp(clock Clock) (int64, error) {
	if clock == nil {
		clock = defaultClock
	}
	now := clock().Unix()

	span := uint64(2*timestampJitterSeconds + 1)
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	// Rejection-free modulo bias is negligible here (span << 2^64) and
	// matches how the rest of this module favors simplicity over
	// constant-time-uniform sampling for non-secret jitter values.
	offset := int64(binary.BigEndian.Uint64(buf[:])%span) - timestampJitterSeconds
	return now + offset, nil
}

func realTimestamp(clock Clock) int64 {
	if clock == nil {
		clock = defaultClock
	}
	return clock().Unix()
}
