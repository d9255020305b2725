// Package security seals document payloads on the client with AES-256-GCM.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrInvalidCiphertext is returned when a sealed payload cannot be opened.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// ErrInvalidKey is returned for master keys that are not 32 bytes.
var ErrInvalidKey = errors.New("key must be 32 bytes")

// AESGCMNonceSize is the standard nonce size for AES-GCM.
const AESGCMNonceSize = 12

// AESGCMTagSize is the authentication tag size for AES-GCM.
const AESGCMTagSize = 16

// Sealer encrypts payloads with keys derived from one master key.
// Each scope (database and collection) gets its own HKDF-derived key, and
// the scope is bound as additional authenticated data so a payload copied
// into another collection fails to open.
type Sealer struct {
	master [32]byte
}

// NewSealer creates a Sealer from a 32 byte master key.
func NewSealer(master []byte) (*Sealer, error) {
	if len(master) != 32 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidKey, len(master))
	}
	s := &Sealer{}
	copy(s.master[:], master)
	return s, nil
}

// Seal encrypts plaintext for the given scope.
// Output format: nonce || ciphertext || tag
func (s *Sealer) Seal(scope string, plaintext []byte) ([]byte, error) {
	gcm, err := s.aead(scope)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, AESGCMNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, AESGCMNonceSize, AESGCMNonceSize+len(plaintext)+AESGCMTagSize)
	copy(out, nonce)
	return gcm.Seal(out, nonce, plaintext, []byte(scope)), nil
}

// Open decrypts a payload produced by Seal for the same scope.
func (s *Sealer) Open(scope string, data []byte) ([]byte, error) {
	if len(data) < AESGCMNonceSize+AESGCMTagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := s.aead(scope)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, data[:AESGCMNonceSize], data[AESGCMNonceSize:], []byte(scope))
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}

// ZeroKey overwrites the master key.
// Note: Go's GC may have already copied the key elsewhere.
func (s *Sealer) ZeroKey() {
	for i := range s.master {
		s.master[i] = 0
	}
}

func (s *Sealer) aead(scope string) (cipher.AEAD, error) {
	key, err := DeriveKey32(s.master[:], nil, []byte(scope))
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// GenerateKey generates a random 256-bit master key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}
