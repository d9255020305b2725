package arangorest

import (
	"github.com/arangorest/arangorest-go/security"
)

// GenerateEncryptionKey generates a random 256-bit key for sealed
// documents (see services/document).
func GenerateEncryptionKey() ([]byte, error) {
	return security.GenerateKey()
}
