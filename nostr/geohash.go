package nostr

import "crypto/sha256"

const geohashChannelDomain = "p2pcore-geohash-channel-v1"

// BuildGeohashNote builds a kind-20000 ephemeral geohash note: location
// tag required, nickname and teleport tags optional. Signed with the
// sender's identity key, unlike the NIP-17/59 onion.
func BuildGeohashNote(geohash, nickname string, teleport bool, content string, secret [32]byte, clock Clock) (Event, error) {
	kp, err := KeyPairFromSecret(secret)
	if err != nil {
		return Event{}, err
	}
	tags := [][]string{{"g", geohash}}
	if nickname != "" {
		tags = append(tags, []string{"n", nickname})
	}
	if teleport {
		tags = append(tags, []string{"t", "teleport"})
	}
	note := Event{
		PubKey:    hexEncode(kp.Public[:]),
		CreatedAt: realTimestamp(clock),
		Kind:      KindGeohashNote,
		Tags:      tags,
		Content:   content,
	}
	if err := note.Sign(secret); err != nil {
		return Event{}, err
	}
	return note, nil
}

// BuildGeohashPresence builds a kind-20001 presence beacon for geohash:
// single "g" tag, empty content, signed with the identity key.
func BuildGeohashPresence(geohash string, secret [32]byte, clock Clock) (Event, error) {
	kp, err := KeyPairFromSecret(secret)
	if err != nil {
		return Event{}, err
	}
	presence := Event{
		PubKey:    hexEncode(kp.Public[:]),
		CreatedAt: realTimestamp(clock),
		Kind:      KindGeohashPresence,
		Tags:      [][]string{{"g", geohash}},
		Content:   "",
	}
	if err := presence.Sign(secret); err != nil {
		return Event{}, err
	}
	return presence, nil
}

// GeohashChannelKey derives a per-geohash shared reading key so ephemeral
// geohash notes on a given channel can be recognized without any
// handshake or storage: SHA-256 of a fixed domain tag plus the geohash
// string. Not a secret in the cryptographic sense — it is derivable by
// anyone who knows the geohash.
func GeohashChannelKey(geohash string) [32]byte {
	return sha256.Sum256(append([]byte(geohashChannelDomain+":"), geohash...))
}
