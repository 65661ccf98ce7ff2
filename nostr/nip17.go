package nostr

import "encoding/hex"

// buildRumor constructs the unsigned kind-14 event carrying the real
// plaintext and the real timestamp. A rumor is never signed and never
// sent on the wire by itself; it only exists serialized inside a seal.
func buildRumor(senderPub [32]byte, content string, clock Clock) Event {
	return Event{
		PubKey:    hexEncode(senderPub[:]),
		CreatedAt: realTimestamp(clock),
		Kind:      KindRumor,
		Tags:      [][]string{},
		Content:   content,
	}
}

// sealRumor wraps a rumor into a signed kind-13 seal addressed to
// recipientPub, encrypted under a fresh ephemeral key per spec.md §4.5.
func sealRumor(rumor Event, recipientPub [32]byte, clock Clock) (Event, error) {
	rumorJSON, err := rumor.toJSON()
	if err != nil {
		return Event{}, err
	}
	sealKey, err := GenerateKeyPair()
	if err != nil {
		return Event{}, err
	}
	ciphertext, err := EncryptNIP44(string(rumorJSON), recipientPub, sealKey.Secret)
	if err != nil {
		return Event{}, err
	}
	ts, err := randomizedTimestamp(clock)
	if err != nil {
		return Event{}, err
	}
	seal := Event{
		PubKey:    hexEncode(sealKey.Public[:]),
		CreatedAt: ts,
		Kind:      KindSeal,
		Tags:      [][]string{},
		Content:   ciphertext,
	}
	if err := seal.Sign(sealKey.Secret); err != nil {
		return Event{}, err
	}
	return seal, nil
}

// openSeal decrypts a kind-13 seal addressed to recipientSecret and
// parses the rumor it contains. The seal's signature is not verified, and
// the rumor's pubkey is returned as written.
func openSeal(seal Event, recipientSecret [32]byte) (Event, error) {
	var sealPub [32]byte
	if err := hexDecodeInto(sealPub[:], seal.PubKey); err != nil {
		return Event{}, ErrInvalidEvent
	}
	plaintext, err := DecryptNIP44(seal.Content, sealPub, recipientSecret)
	if err != nil {
		return Event{}, err
	}
	rumor, err := eventFromJSON([]byte(plaintext))
	if err != nil {
		return Event{}, ErrInvalidEvent
	}
	return rumor, nil
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// hexDecodeInto decodes s into dst, requiring an exact length match.
func hexDecodeInto(dst []byte, s string) error {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(dst) {
		return ErrInvalidEvent
	}
	copy(dst, b)
	return nil
}
