package cryptoprov

import (
	"crypto"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/keymaterial"
)

// NewSignerFromFile returns a signer from PEM encoded key file
func NewSignerFromFile(keyFile string) (crypto.Signer, error) {
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, errors.WithMessagef(err, "load key file")
	}
	// remove trailing space and end-of-line
	key = []byte(strings.TrimSpace(string(key)))

	s, err := NewSignerFromPEM(key)
	if err != nil {
		return nil, errors.WithMessagef(err, "load key from file: %s", keyFile)
	}
	return s, nil
}

// NewSignerFromPEM returns a signer from PEM encoded RSA private key
func NewSignerFromPEM(key []byte) (crypto.Signer, error) {
	pvk, err := keymaterial.Parse(string(key))
	if err != nil {
		return nil, err
	}
	return pvk, nil
}
