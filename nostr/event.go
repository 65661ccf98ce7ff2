package nostr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Kind identifies a Nostr event type.
type Kind uint16

const (
	KindMetadata        Kind = 0
	KindTextNote        Kind = 1
	KindLegacyDM        Kind = 4
	KindSeal            Kind = 13
	KindRumor           Kind = 14
	KindGiftWrap        Kind = 1059
	KindGeohashNote     Kind = 20000
	KindGeohashPresence Kind = 20001
)

// Event is the canonical Nostr event shape this module signs, verifies,
// and serializes.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      Kind       `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// serializeCanonical produces the minimal JSON array
// [0, pubkey, created_at, kind, tags, content] the event ID is hashed
// from: positional fields, no insignificant whitespace, standard JSON
// string escaping.
func serializeCanonical(pubkey string, createdAt int64, kind Kind, tags [][]string, content string) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString("0,")
	writeJSONString(&buf, pubkey)
	buf.WriteByte(',')
	buf.WriteString(strconv.FormatInt(createdAt, 10))
	buf.WriteByte(',')
	buf.WriteString(strconv.FormatUint(uint64(kind), 10))
	buf.WriteByte(',')
	writeTags(&buf, tags)
	buf.WriteByte(',')
	writeJSONString(&buf, content)
	buf.WriteByte(']')
	return buf.Bytes()
}

func writeTags(buf *bytes.Buffer, tags [][]string) {
	buf.WriteByte('[')
	for i, tag := range tags {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		for j, v := range tag {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, v)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
}

// writeJSONString writes s as an RFC 8259 minimally escaped JSON string:
// quote, backslash, and the named single-character escapes get their
// short form; other control characters get \u00XX; everything else is
// copied through verbatim (Go source and Nostr relays alike treat event
// JSON as UTF-8, not ASCII-escaped).
func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// ComputeID returns the lowercase-hex SHA-256 of the event's canonical
// serialization, per spec.md §3: id = SHA-256(serialize_canonical(...)).
func ComputeID(pubkey string, createdAt int64, kind Kind, tags [][]string, content string) string {
	sum := sha256.Sum256(serializeCanonical(pubkey, createdAt, kind, tags, content))
	return hex.EncodeToString(sum[:])
}

// Sign computes the event's ID and signs the ID digest with secret under
// Schnorr/BIP-340, filling in both ID and Sig. It calls schnorr.Sign with
// no options, so the nonce comes from that function's default derivation;
// Sign draws no auxiliary randomness of its own.
func (e *Event) Sign(secret [32]byte) error {
	if e.Tags == nil {
		e.Tags = [][]string{}
	}
	e.ID = ComputeID(e.PubKey, e.CreatedAt, e.Kind, e.Tags, e.Content)

	priv, err := parsePrivateKey(secret)
	if err != nil {
		return err
	}
	digest, err := hex.DecodeString(e.ID)
	if err != nil {
		return err
	}
	sig, err := schnorr.Sign(priv, digest)
	if err != nil {
		return err
	}
	e.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}

// Verify recomputes the canonical ID and checks the Schnorr signature
// against PubKey. Any failure (bad hex, wrong length, mismatched ID, bad
// signature) returns false rather than an error, per spec.md §4.5.
func (e *Event) Verify() bool {
	wantID := ComputeID(e.PubKey, e.CreatedAt, e.Kind, e.Tags, e.Content)
	if wantID != e.ID {
		return false
	}

	pubBytes, err := hex.DecodeString(e.PubKey)
	if err != nil || len(pubBytes) != 32 {
		return false
	}
	var pub [32]byte
	copy(pub[:], pubBytes)
	pk, err := schnorr.ParsePubKey(pub[:])
	if err != nil {
		return false
	}

	sigBytes, err := hex.DecodeString(e.Sig)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return false
	}

	digest, err := hex.DecodeString(e.ID)
	if err != nil {
		return false
	}

	return sig.Verify(digest, pk)
}

// toJSON uses the default encoding/json shape (field order follows the
// struct tags above). The canonical ID hash input is intentionally
// computed by serializeCanonical, not this method: the two have
// different field sets (this one also carries id and sig).
func (e Event) toJSON() ([]byte, error) {
	return json.Marshal(e)
}

func eventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
