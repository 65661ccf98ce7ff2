// Package keystore persists the module's two long-term static key pairs
// (the Noise X25519 static and the Nostr secp256k1 identity) to disk,
// encrypted at rest. It is grounded on opd-ai-toxcore's
// crypto.EncryptedKeyStore: AES-256-GCM with a PBKDF2-derived key,
// atomic tmp-file-then-rename writes, and 0o600/0o700 permissions.
//
// Encryption at rest is mandatory, not optional: Open always requires a
// non-empty passphrase, matching the teacher's own refusal to construct
// a store around an empty master password.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/opd-ai/p2pcore/internal/xlog"
)

const (
	pbkdf2Iterations = 100000
	saltSize         = 32
	formatVersion    = 1

	slotNoiseStatic   = "noise_static"
	slotNostrIdentity = "nostr_identity"
)

var logger = xlog.New("keystore")

// KeyStore is an encrypted-at-rest store for the module's two static key
// pairs. Not safe for concurrent use from multiple goroutines without
// external synchronization, matching the single-owner-task model the
// rest of this module follows.
type KeyStore struct {
	dataDir       string
	saltFile      string
	encryptionKey [32]byte
}

type slotDocument struct {
	Secret    [32]byte `json:"secret"`
	CreatedAt int64    `json:"createdAt"`
}

// Open derives an encryption key from passphrase via PBKDF2 (loading or
// generating a per-directory salt) and returns a KeyStore rooted at
// dataDir. passphrase is zeroized before Open returns.
func Open(dataDir string, passphrase []byte) (*KeyStore, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	defer zeroize(passphrase)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: creating data directory: %w", err)
	}

	ks := &KeyStore{
		dataDir:  dataDir,
		saltFile: filepath.Join(dataDir, ".salt"),
	}

	salt, err := ks.loadOrGenerateSalt()
	if err != nil {
		return nil, err
	}

	derived := pbkdf2.Key(passphrase, salt, pbkdf2Iterations, 32, sha256.New)
	copy(ks.encryptionKey[:], derived)
	zeroize(derived)

	return ks, nil
}

func (ks *KeyStore) loadOrGenerateSalt() ([]byte, error) {
	data, err := os.ReadFile(ks.saltFile)
	if err == nil {
		if len(data) != saltSize {
			return nil, fmt.Errorf("keystore: salt file has wrong size %d", len(data))
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("keystore: reading salt file: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keystore: generating salt: %w", err)
	}
	if err := os.WriteFile(ks.saltFile, salt, 0o600); err != nil {
		return nil, fmt.Errorf("keystore: writing salt file: %w", err)
	}
	return salt, nil
}

// SaveNoiseStatic persists the Noise X25519 static private key.
func (ks *KeyStore) SaveNoiseStatic(priv [32]byte) error {
	return ks.saveSlot(slotNoiseStatic, priv)
}

// LoadNoiseStatic loads the Noise X25519 static private key and its
// creation time.
func (ks *KeyStore) LoadNoiseStatic() ([32]byte, time.Time, error) {
	return ks.loadSlot(slotNoiseStatic)
}

// SaveNostrIdentity persists the Nostr secp256k1 identity secret.
func (ks *KeyStore) SaveNostrIdentity(secret [32]byte) error {
	return ks.saveSlot(slotNostrIdentity, secret)
}

// LoadNostrIdentity loads the Nostr secp256k1 identity secret and its
// creation time.
func (ks *KeyStore) LoadNostrIdentity() ([32]byte, time.Time, error) {
	return ks.loadSlot(slotNostrIdentity)
}

func (ks *KeyStore) saveSlot(slot string, secret [32]byte) error {
	doc := slotDocument{Secret: secret, CreatedAt: time.Now().Unix()}
	plaintext, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("keystore: encoding slot %s: %w", slot, err)
	}
	defer zeroize(plaintext)

	ciphertext, err := ks.encrypt(plaintext)
	if err != nil {
		return err
	}

	tmpFile := filepath.Join(ks.dataDir, slot+".tmp")
	finalFile := filepath.Join(ks.dataDir, slot)
	if err := os.WriteFile(tmpFile, ciphertext, 0o600); err != nil {
		return fmt.Errorf("keystore: writing slot %s: %w", slot, err)
	}
	if err := os.Rename(tmpFile, finalFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("keystore: committing slot %s: %w", slot, err)
	}
	logger.With("slot", slot).Info("keystore slot saved")
	return nil
}

func (ks *KeyStore) loadSlot(slot string) ([32]byte, time.Time, error) {
	var zero [32]byte
	path := filepath.Join(ks.dataDir, slot)
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, time.Time{}, ErrSlotNotFound
		}
		return zero, time.Time{}, fmt.Errorf("keystore: reading slot %s: %w", slot, err)
	}

	plaintext, err := ks.decrypt(ciphertext)
	if err != nil {
		return zero, time.Time{}, err
	}
	defer zeroize(plaintext)

	var doc slotDocument
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return zero, time.Time{}, ErrCorruptSlot
	}
	return doc.Secret, time.Unix(doc.CreatedAt, 0), nil
}

// encrypt produces version(2) || nonce(12) || ciphertext+tag.
func (ks *KeyStore) encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := ks.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keystore: generating nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 2+len(nonce)+len(sealed))
	binary.BigEndian.PutUint16(out[0:2], formatVersion)
	copy(out[2:2+len(nonce)], nonce)
	copy(out[2+len(nonce):], sealed)
	return out, nil
}

func (ks *KeyStore) decrypt(data []byte) ([]byte, error) {
	gcm, err := ks.gcm()
	if err != nil {
		return nil, err
	}
	if len(data) < 2+gcm.NonceSize() {
		return nil, ErrCorruptSlot
	}
	if binary.BigEndian.Uint16(data[0:2]) != formatVersion {
		return nil, ErrUnsupportedForm
	}
	nonce := data[2 : 2+gcm.NonceSize()]
	ciphertext := data[2+gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCorruptSlot
	}
	return plaintext, nil
}

func (ks *KeyStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("keystore: creating cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Close zeroizes the in-memory encryption key. The KeyStore must not be
// used afterward.
func (ks *KeyStore) Close() error {
	zeroize(ks.encryptionKey[:])
	return nil
}

func zeroize(data []byte) {
	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)
	runtime.KeepAlive(data)
}
