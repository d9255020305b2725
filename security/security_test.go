package security

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealer(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	s, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	scope := Scope("_system", "secrets")
	plain := []byte(`{"pin":"1234"}`)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := s.Seal(scope, plain)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		if bytes.Contains(sealed, plain) {
			t.Fatal("sealed payload contains plaintext")
		}
		opened, err := s.Open(scope, sealed)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if !bytes.Equal(opened, plain) {
			t.Fatalf("Open = %q, want %q", opened, plain)
		}
	})

	t.Run("wrong scope", func(t *testing.T) {
		sealed, err := s.Seal(scope, plain)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		if _, err := s.Open(Scope("_system", "other"), sealed); !errors.Is(err, ErrInvalidCiphertext) {
			t.Fatalf("Open with other scope = %v, want ErrInvalidCiphertext", err)
		}
	})

	t.Run("short input", func(t *testing.T) {
		if _, err := s.Open(scope, []byte("short")); !errors.Is(err, ErrInvalidCiphertext) {
			t.Fatalf("Open = %v, want ErrInvalidCiphertext", err)
		}
	})
}

func TestNewSealerKeyLength(t *testing.T) {
	if _, err := NewSealer(make([]byte, 16)); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("NewSealer(16 bytes) = %v, want ErrInvalidKey", err)
	}
}

func TestDeriveKeyDistinctScopes(t *testing.T) {
	secret := bytes.Repeat([]byte{7}, 32)
	a, err := DeriveKey32(secret, nil, []byte(Scope("db", "a")))
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveKey32(secret, nil, []byte(Scope("db", "b")))
	if err != nil {
		t.Fatal(err)
	}
	if *a == *b {
		t.Fatal("different scopes derived the same key")
	}
}
