package relay

import "errors"

var (
	ErrRelayNotConnected   = errors.New("relay: not connected")
	ErrUnknownSubscription = errors.New("relay: unknown subscription id")
	ErrRelayAlreadyAdded   = errors.New("relay: url already registered")
	ErrRelayUnknown        = errors.New("relay: url not registered")
)
