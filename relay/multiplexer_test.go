package relay

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/p2pcore/nostr"
)

// fakeRelay is a minimal test double: on every REQ it immediately sends
// one fixed EVENT message and an EOSE, so tests can assert on delivery
// and dedup without needing a real Nostr relay.
func fakeRelay(t *testing.T, event nostr.Event) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if !strings.Contains(string(raw), `"REQ"`) {
				continue
			}
			subID := extractSubID(raw)
			_ = conn.WriteJSON([]interface{}{"EVENT", subID, event})
			_ = conn.WriteJSON([]interface{}{"EOSE", subID})
		}
	}))
}

func extractSubID(raw []byte) string {
	// REQ envelope is ["REQ","<subid>",...]; subid is always the second
	// quoted token.
	s := string(raw)
	first := strings.Index(s, `","`)
	if first < 0 {
		return ""
	}
	rest := s[first+3:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestMultiplexer_DedupAcrossRelays(t *testing.T) {
	kp, err := nostr.GenerateKeyPair()
	require.NoError(t, err)
	event := nostr.Event{
		PubKey:    hex.EncodeToString(kp.Public[:]),
		CreatedAt: 1700000000,
		Kind:      nostr.KindTextNote,
		Tags:      [][]string{},
		Content:   "hello",
	}
	require.NoError(t, event.Sign(kp.Secret))

	relayA := fakeRelay(t, event)
	defer relayA.Close()
	relayB := fakeRelay(t, event)
	defer relayB.Close()

	m := NewMultiplexer()
	defer m.Close()
	require.NoError(t, m.AddRelay(wsURL(relayA.URL)))
	require.NoError(t, m.AddRelay(wsURL(relayB.URL)))

	require.Eventually(t, func() bool {
		return bothConnected(m, wsURL(relayA.URL), wsURL(relayB.URL))
	}, 2*time.Second, 10*time.Millisecond)

	var calls int32
	var mu sync.Mutex
	var received []nostr.Event
	_, err = m.Subscribe([]Filter{{}}, func(url string, e nostr.Event) {
		atomic.AddInt32(&calls, 1)
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give the second relay's duplicate delivery time to arrive too.
	time.Sleep(200 * time.Millisecond)

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	require.Equal(t, event.ID, received[0].ID)
}

func bothConnected(m *Multiplexer, urls ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range urls {
		cs, ok := m.conns[u]
		if !ok {
			return false
		}
		cs.mu.Lock()
		connected := cs.info.Connected
		cs.mu.Unlock()
		if !connected {
			return false
		}
	}
	return true
}
