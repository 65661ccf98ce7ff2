package nostr

// PrivateMessage is the result of unwrapping a NIP-59 gift-wrap: the
// rumor's plaintext content plus the cryptographically attested sender
// and the rumor's real (non-randomized) timestamp.
type PrivateMessage struct {
	Content   string
	Sender    [32]byte
	Timestamp int64
}

// CreatePrivateMessage builds the rumor -> seal -> gift-wrap onion of
// spec.md §4.5: a kind-14 rumor from senderSecret, sealed under a fresh
// ephemeral key (kind 13), then wrapped under a second fresh ephemeral
// key (kind 1059) addressed to recipientPub via a "p" tag. The returned
// event's pubkey is unrelated to senderSecret's identity.
func CreatePrivateMessage(content string, recipientPub [32]byte, senderSecret [32]byte) (Event, error) {
	senderKey, err := KeyPairFromSecret(senderSecret)
	if err != nil {
		return Event{}, err
	}

	rumor := buildRumor(senderKey.Public, content, nil)
	seal, err := sealRumor(rumor, recipientPub, nil)
	if err != nil {
		return Event{}, err
	}

	sealJSON, err := seal.toJSON()
	if err != nil {
		return Event{}, err
	}
	wrapKey, err := GenerateKeyPair()
	if err != nil {
		return Event{}, err
	}
	ciphertext, err := EncryptNIP44(string(sealJSON), recipientPub, wrapKey.Secret)
	if err != nil {
		return Event{}, err
	}
	ts, err := randomizedTimestamp(nil)
	if err != nil {
		return Event{}, err
	}
	wrap := Event{
		PubKey:    hexEncode(wrapKey.Public[:]),
		CreatedAt: ts,
		Kind:      KindGiftWrap,
		Tags:      [][]string{{"p", hexEncode(recipientPub[:])}},
		Content:   ciphertext,
	}
	if err := wrap.Sign(wrapKey.Secret); err != nil {
		return Event{}, err
	}
	return wrap, nil
}

// DecryptPrivateMessage reverses CreatePrivateMessage: unwraps the
// gift-wrap and the seal it contains using recipientSecret, returning the
// rumor's plaintext, attested sender, and real timestamp.
func DecryptPrivateMessage(wrap Event, recipientSecret [32]byte) (PrivateMessage, error) {
	if wrap.Kind != KindGiftWrap {
		return PrivateMessage{}, ErrInvalidEvent
	}
	var wrapPub [32]byte
	if err := hexDecodeInto(wrapPub[:], wrap.PubKey); err != nil {
		return PrivateMessage{}, ErrInvalidEvent
	}
	sealJSON, err := DecryptNIP44(wrap.Content, wrapPub, recipientSecret)
	if err != nil {
		return PrivateMessage{}, err
	}
	seal, err := eventFromJSON([]byte(sealJSON))
	if err != nil {
		return PrivateMessage{}, ErrInvalidEvent
	}
	if seal.Kind != KindSeal {
		return PrivateMessage{}, ErrInvalidEvent
	}

	rumor, err := openSeal(seal, recipientSecret)
	if err != nil {
		return PrivateMessage{}, err
	}
	if rumor.Kind != KindRumor {
		return PrivateMessage{}, ErrInvalidEvent
	}

	var sender [32]byte
	if err := hexDecodeInto(sender[:], rumor.PubKey); err != nil {
		return PrivateMessage{}, ErrInvalidEvent
	}
	return PrivateMessage{
		Content:   rumor.Content,
		Sender:    sender,
		Timestamp: rumor.CreatedAt,
	}, nil
}
