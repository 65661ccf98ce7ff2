package relay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opd-ai/p2pcore/internal/xlog"
	"github.com/opd-ai/p2pcore/nostr"
)

var logger = xlog.New("relay")

// connState is one relay's live websocket plus its reconnect bookkeeping.
type connState struct {
	info RelayInfo

	mu      sync.Mutex
	ws      *websocket.Conn
	cancel  context.CancelFunc
	closing bool
}

// Multiplexer maintains one websocket per configured relay URL, fans
// published events and subscriptions out to all of them, and
// deduplicates inbound events globally before invoking subscriber
// callbacks, per spec.md §4.6.
type Multiplexer struct {
	mu    sync.Mutex
	conns map[string]*connState
	subs  map[string]*Subscription

	dedup  *dedupSet
	dialer *websocket.Dialer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewMultiplexer creates a multiplexer with no relays yet configured.
// Call AddRelay for each relay URL, then Connect.
func NewMultiplexer() *Multiplexer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Multiplexer{
		conns:  make(map[string]*connState),
		subs:   make(map[string]*Subscription),
		dedup:  newDedupSet(),
		dialer: websocket.DefaultDialer,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddRelay registers url and immediately attempts to connect it.
func (m *Multiplexer) AddRelay(url string) error {
	m.mu.Lock()
	if _, exists := m.conns[url]; exists {
		m.mu.Unlock()
		return ErrRelayAlreadyAdded
	}
	cs := &connState{info: RelayInfo{URL: url}}
	m.conns[url] = cs
	m.mu.Unlock()

	go m.dial(url, cs)
	return nil
}

// RemoveRelay tears down url's connection and cancels any pending
// reconnect timer.
func (m *Multiplexer) RemoveRelay(url string) error {
	m.mu.Lock()
	cs, exists := m.conns[url]
	if !exists {
		m.mu.Unlock()
		return ErrRelayUnknown
	}
	delete(m.conns, url)
	m.mu.Unlock()

	cs.mu.Lock()
	cs.closing = true
	if cs.cancel != nil {
		cs.cancel()
	}
	if cs.ws != nil {
		_ = cs.ws.Close()
	}
	cs.mu.Unlock()
	return nil
}

// Connect opens every configured relay in parallel. Relays already
// connected are left alone; relays with a pending reconnect timer have
// it cancelled and are redialed immediately.
func (m *Multiplexer) Connect() {
	m.mu.Lock()
	targets := make([]*connState, 0, len(m.conns))
	for _, cs := range m.conns {
		targets = append(targets, cs)
	}
	m.mu.Unlock()

	for _, cs := range targets {
		cs.mu.Lock()
		alreadyUp := cs.info.Connected
		if !alreadyUp && cs.cancel != nil {
			cs.cancel()
		}
		url := cs.info.URL
		cs.mu.Unlock()
		if !alreadyUp {
			go m.dial(url, cs)
		}
	}
}

// Close tears down every relay connection and cancels all reconnect
// timers. The multiplexer must not be reused afterward.
func (m *Multiplexer) Close() {
	m.cancel()
	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]*connState)
	m.mu.Unlock()

	for _, cs := range conns {
		cs.mu.Lock()
		cs.closing = true
		if cs.cancel != nil {
			cs.cancel()
		}
		if cs.ws != nil {
			_ = cs.ws.Close()
		}
		cs.mu.Unlock()
	}
}

func (m *Multiplexer) dial(url string, cs *connState) {
	ws, _, err := m.dialer.Dial(url, nil)
	if err != nil {
		logger.WithError(err).With("url", url).Warn("relay dial failed")
		m.scheduleReconnect(url, cs)
		return
	}

	connCtx, cancel := context.WithCancel(m.ctx)
	cs.mu.Lock()
	if cs.closing {
		cs.mu.Unlock()
		cancel()
		_ = ws.Close()
		return
	}
	cs.ws = ws
	cs.cancel = cancel
	cs.info.Connected = true
	cs.info.Attempts = 0
	cs.mu.Unlock()

	logger.With("url", url).Info("relay connected")
	m.resendSubscriptions(url, cs)

	go m.readLoop(connCtx, url, cs)
}

func (m *Multiplexer) scheduleReconnect(url string, cs *connState) {
	cs.mu.Lock()
	if cs.closing {
		cs.mu.Unlock()
		return
	}
	cs.info.Attempts++
	attempts := cs.info.Attempts
	retryCtx, cancel := context.WithCancel(m.ctx)
	cs.cancel = cancel
	cs.mu.Unlock()

	delay := reconnectDelay(attempts)
	timer := time.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-retryCtx.Done():
			return
		case <-timer.C:
			m.dial(url, cs)
		}
	}()
}

func (m *Multiplexer) readLoop(ctx context.Context, url string, cs *connState) {
	defer func() {
		cs.mu.Lock()
		cs.info.Connected = false
		closing := cs.closing
		cs.mu.Unlock()

		if !closing {
			m.scheduleReconnect(url, cs)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := cs.ws.ReadMessage()
		if err != nil {
			logger.WithError(err).With("url", url).Debug("relay read error")
			return
		}
		m.handleMessage(url, raw)
	}
}

func (m *Multiplexer) handleMessage(url string, raw []byte) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope) == 0 {
		return
	}
	var msgType string
	if err := json.Unmarshal(envelope[0], &msgType); err != nil {
		return
	}

	switch msgType {
	case "EVENT":
		m.handleEvent(url, envelope)
	case "EOSE":
		m.handleEOSE(url, envelope)
	case "OK":
		m.handleOK(url, envelope)
	case "NOTICE":
		m.handleNotice(url, envelope)
	}
}

func (m *Multiplexer) handleEvent(url string, envelope []json.RawMessage) {
	if len(envelope) < 3 {
		return
	}
	var subID string
	if err := json.Unmarshal(envelope[1], &subID); err != nil {
		return
	}
	var event nostr.Event
	if err := json.Unmarshal(envelope[2], &event); err != nil {
		return
	}

	if m.dedup.seenOrAdd(event.ID) {
		return
	}

	m.mu.Lock()
	sub, ok := m.subs[subID]
	m.mu.Unlock()
	if !ok || sub.OnEvent == nil {
		return
	}
	sub.OnEvent(url, event)
}

func (m *Multiplexer) handleEOSE(url string, envelope []json.RawMessage) {
	if len(envelope) < 2 {
		return
	}
	var subID string
	if err := json.Unmarshal(envelope[1], &subID); err != nil {
		return
	}
	m.mu.Lock()
	sub, ok := m.subs[subID]
	m.mu.Unlock()
	if ok && sub.OnEOSE != nil {
		sub.OnEOSE(url)
	}
}

func (m *Multiplexer) handleOK(url string, envelope []json.RawMessage) {
	if len(envelope) < 3 {
		return
	}
	var eventID string
	var accepted bool
	_ = json.Unmarshal(envelope[1], &eventID)
	_ = json.Unmarshal(envelope[2], &accepted)
	if !accepted {
		reason := ""
		if len(envelope) > 3 {
			_ = json.Unmarshal(envelope[3], &reason)
		}
		logger.With("url", url).With("event_id", eventID).With("reason", reason).Warn("relay rejected event")
	}
}

func (m *Multiplexer) handleNotice(url string, envelope []json.RawMessage) {
	if len(envelope) < 2 {
		return
	}
	var text string
	_ = json.Unmarshal(envelope[1], &text)
	logger.With("url", url).With("notice", text).Info("relay notice")
}

// Subscribe assigns a random 8-character subscription id, stores the
// subscription, and sends REQ to every currently-connected relay.
func (m *Multiplexer) Subscribe(filters []Filter, onEvent func(string, nostr.Event), onEOSE func(string)) (string, error) {
	subID, err := randomSubID()
	if err != nil {
		return "", err
	}
	sub := &Subscription{ID: subID, Filters: filters, OnEvent: onEvent, OnEOSE: onEOSE}

	m.mu.Lock()
	m.subs[subID] = sub
	m.mu.Unlock()

	m.sendToAll(reqMessage(sub))
	return subID, nil
}

// Unsubscribe removes the subscription and sends CLOSE to every
// connected relay. In-flight on_event invocations already dispatched
// before this call may still deliver.
func (m *Multiplexer) Unsubscribe(subID string) error {
	m.mu.Lock()
	if _, ok := m.subs[subID]; !ok {
		m.mu.Unlock()
		return ErrUnknownSubscription
	}
	delete(m.subs, subID)
	m.mu.Unlock()

	m.sendToAll(closeMessage(subID))
	return nil
}

// Publish sends EVENT to every connected relay and returns once
// dispatched; it does not wait for an OK response.
func (m *Multiplexer) Publish(event nostr.Event) error {
	msg, err := json.Marshal([]interface{}{"EVENT", event})
	if err != nil {
		return err
	}
	m.sendToAll(msg)
	return nil
}

func (m *Multiplexer) resendSubscriptions(url string, cs *connState) {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		m.sendTo(cs, reqMessage(sub))
	}
}

func (m *Multiplexer) sendToAll(msg []byte) {
	m.mu.Lock()
	targets := make([]*connState, 0, len(m.conns))
	for _, cs := range m.conns {
		targets = append(targets, cs)
	}
	m.mu.Unlock()

	for _, cs := range targets {
		m.sendTo(cs, msg)
	}
}

func (m *Multiplexer) sendTo(cs *connState, msg []byte) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.ws == nil || !cs.info.Connected {
		return
	}
	if err := cs.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		logger.WithError(err).With("url", cs.info.URL).Warn("relay write failed")
	}
}

func reqMessage(sub *Subscription) []byte {
	parts := []interface{}{"REQ", sub.ID}
	for _, f := range sub.Filters {
		parts = append(parts, filterToWire(f))
	}
	data, _ := json.Marshal(parts)
	return data
}

func closeMessage(subID string) []byte {
	data, _ := json.Marshal([]interface{}{"CLOSE", subID})
	return data
}

// filterToWire flattens Filter.Tags into the "#x" key shape the Nostr
// REQ wire format uses, since Go struct tags can't express dynamic keys.
func filterToWire(f Filter) map[string]interface{} {
	wire := map[string]interface{}{}
	if len(f.IDs) > 0 {
		wire["ids"] = f.IDs
	}
	if len(f.Authors) > 0 {
		wire["authors"] = f.Authors
	}
	if len(f.Kinds) > 0 {
		wire["kinds"] = f.Kinds
	}
	if f.Since != nil {
		wire["since"] = *f.Since
	}
	if f.Until != nil {
		wire["until"] = *f.Until
	}
	if f.Limit != nil {
		wire["limit"] = *f.Limit
	}
	for tagName, values := range f.Tags {
		wire["#"+tagName] = values
	}
	return wire
}

func randomSubID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("relay: generating subscription id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
