package security

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey derives a key using HKDF-SHA256.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveKey32 derives a 32-byte (256-bit) key.
func DeriveKey32(secret, salt, info []byte) (*[32]byte, error) {
	derived, err := DeriveKey(secret, salt, info, 32)
	if err != nil {
		return nil, err
	}
	var key [32]byte
	copy(key[:], derived)
	return &key, nil
}

// Scope returns the HKDF info label for a collection in a database.
func Scope(database, collection string) string {
	return "arangorest/" + database + "/" + collection
}
