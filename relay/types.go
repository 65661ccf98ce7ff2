package relay

import (
	"github.com/opd-ai/p2pcore/nostr"
)

// Filter is a Nostr REQ filter. Since/Until/Limit are pointers because
// "unset" and "zero" are different filter constraints.
type Filter struct {
	IDs     []string            `json:"ids,omitempty"`
	Authors []string            `json:"authors,omitempty"`
	Kinds   []nostr.Kind        `json:"kinds,omitempty"`
	Tags    map[string][]string `json:"-"`
	Since   *int64              `json:"since,omitempty"`
	Until   *int64              `json:"until,omitempty"`
	Limit   *int                `json:"limit,omitempty"`
}

// Matches reports whether event satisfies every constraint set on f. An
// unset field (nil slice/pointer) imposes no constraint.
func (f Filter) Matches(event nostr.Event) bool {
	if len(f.IDs) > 0 && !containsString(f.IDs, event.ID) {
		return false
	}
	if len(f.Authors) > 0 && !containsString(f.Authors, event.PubKey) {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, event.Kind) {
		return false
	}
	if f.Since != nil && event.CreatedAt < *f.Since {
		return false
	}
	if f.Until != nil && event.CreatedAt > *f.Until {
		return false
	}
	for tagName, values := range f.Tags {
		if !eventHasTagValue(event, tagName, values) {
			return false
		}
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func containsKind(haystack []nostr.Kind, needle nostr.Kind) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func eventHasTagValue(event nostr.Event, tagName string, values []string) bool {
	for _, tag := range event.Tags {
		if len(tag) >= 2 && tag[0] == tagName && containsString(values, tag[1]) {
			return true
		}
	}
	return false
}

// RelayInfo tracks per-URL connection bookkeeping: current reconnect
// backoff state and whether it is presently connected.
type RelayInfo struct {
	URL         string
	Connected   bool
	Attempts    int
	cancelRetry func()
}

// Subscription is a stored REQ: the filters it was opened with and the
// callbacks invoked on matching events / end-of-stored-events.
type Subscription struct {
	ID      string
	Filters []Filter
	OnEvent func(relayURL string, event nostr.Event)
	OnEOSE  func(relayURL string)
}
