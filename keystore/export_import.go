package keystore

import (
	"encoding/json"
	"time"

	"github.com/opd-ai/p2pcore/bech32"
)

const nsecHRP = "nsec"

// ExportDocument is the JSON shape spec.md §6 pins for identity export.
type ExportDocument struct {
	Version    int    `json:"version"`
	Nsec       string `json:"nsec"`
	CreatedAt  int64  `json:"createdAt"`
	ExportedAt int64  `json:"exportedAt"`
}

// EncodeNsec bech32-encodes a 32-byte secret scalar with the "nsec" HRP.
func EncodeNsec(secret [32]byte) (string, error) {
	data, err := bech32.ConvertBits(secret[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(nsecHRP, data)
}

// DecodeNsec reverses EncodeNsec.
func DecodeNsec(nsec string) ([32]byte, error) {
	var secret [32]byte
	hrp, data, err := bech32.Decode(nsec)
	if err != nil {
		return secret, ErrInvalidNsec
	}
	if hrp != nsecHRP {
		return secret, ErrInvalidNsec
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil || len(raw) != 32 {
		return secret, ErrInvalidNsec
	}
	copy(secret[:], raw)
	return secret, nil
}

// ExportNostrIdentity loads the stored Nostr identity secret and returns
// the JSON export document {version, nsec, createdAt, exportedAt}.
func (ks *KeyStore) ExportNostrIdentity(now time.Time) (ExportDocument, error) {
	secret, createdAt, err := ks.LoadNostrIdentity()
	if err != nil {
		return ExportDocument{}, err
	}
	defer zeroize(secret[:])

	nsec, err := EncodeNsec(secret)
	if err != nil {
		return ExportDocument{}, err
	}
	return ExportDocument{
		Version:    1,
		Nsec:       nsec,
		CreatedAt:  createdAt.Unix(),
		ExportedAt: now.Unix(),
	}, nil
}

// ImportNostrIdentity decodes an nsec string and persists it as the
// store's Nostr identity slot.
func (ks *KeyStore) ImportNostrIdentity(nsec string) error {
	secret, err := DecodeNsec(nsec)
	if err != nil {
		return err
	}
	defer zeroize(secret[:])
	return ks.SaveNostrIdentity(secret)
}

// MarshalExportDocument renders doc as the canonical JSON export blob.
func MarshalExportDocument(doc ExportDocument) ([]byte, error) {
	return json.Marshal(doc)
}

// UnmarshalExportDocument parses a JSON export blob written by
// MarshalExportDocument / ExportNostrIdentity.
func UnmarshalExportDocument(data []byte) (ExportDocument, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return ExportDocument{}, ErrInvalidExportDoc
	}
	if doc.Version != 1 || doc.Nsec == "" {
		return ExportDocument{}, ErrInvalidExportDoc
	}
	return doc, nil
}
