package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// envelopePrefix marks the single symbol that carries the ciphertext.
const envelopePrefix = "enc:v1:"

var (
	// ErrInvalidKey is returned for keys that are not KeySize bytes long.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

	// ErrMissingEnvelope is returned when a stored definition is plain text.
	ErrMissingEnvelope = errors.New("sequence is missing encrypted envelope")

	// ErrDecrypt is returned when no configured key opens the envelope.
	ErrDecrypt = errors.New("decryption failed with all available keys")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new definitions.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt,
	// so stores written with a retired key stay readable.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SequenceStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals every stored
// definition with AES-GCM. Only the name stays readable in the backend;
// description, keys and creation time travel inside the envelope.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != KeySize {
		return nil, ErrInvalidKey
	}
	for i, k := range config.FallbackKeys {
		if len(k) != KeySize {
			return nil, fmt.Errorf("fallback key %d: %w", i, ErrInvalidKey)
		}
	}
	return func(next ports.SequenceStore) ports.SequenceStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

// ParseKey decodes a base64 (standard or URL alphabet) AES-256 key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if key, err = base64.URLEncoding.DecodeString(s); err != nil {
			return nil, fmt.Errorf("decode key: %w", err)
		}
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, def domain.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	plainText, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal sequence: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt sequence: %w", err)
	}

	envelope := domain.Definition{
		Name: def.Name,
		Keys: domain.Sequence{envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext)},
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, name string) (domain.Definition, error) {
	envelope, err := m.next.Load(ctx, name)
	if err != nil {
		return domain.Definition{}, err
	}

	// Fail secure: a plain definition in an encrypted store is rejected.
	if len(envelope.Keys) != 1 || !strings.HasPrefix(envelope.Keys[0], envelopePrefix) {
		return domain.Definition{}, fmt.Errorf("%q: %w", name, ErrMissingEnvelope)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(envelope.Keys[0], envelopePrefix))
	if err != nil {
		return domain.Definition{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("%q: %w", name, err)
	}

	var def domain.Definition
	if err := json.Unmarshal(plainText, &def); err != nil {
		return domain.Definition{}, fmt.Errorf("failed to unmarshal decrypted sequence: %w", err)
	}
	// The envelope name is authoritative; a renamed blob must not load as another sequence.
	if def.Name != envelope.Name {
		return domain.Definition{}, fmt.Errorf("%q: envelope holds %q: %w", name, def.Name, ErrDecrypt)
	}
	return def, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecrypt
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
