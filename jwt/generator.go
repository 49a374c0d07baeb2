package jwt

import (
	"crypto"

	"github.com/cockroachdb/errors"
)

// Generate returns signed compact JWT:
// base64url(header).base64url(payload).base64url(signature)
//
// The key must be an RSA signer, keymaterial.PrivateKey or a KMS backed signer.
// On error no part of the token is returned.
func Generate(header Header, payload any, key crypto.Signer) (string, error) {
	h, err := EncodeHeader(header)
	if err != nil {
		return "", err
	}
	p, err := EncodePayload(payload)
	if err != nil {
		return "", err
	}
	if !isSegment(h) || !isSegment(p) {
		return "", errors.Mark(errors.New("unable to build signing input"), ErrInvalidHeaderOrPayload)
	}

	signingString := h + "." + p
	sig, err := Sign([]byte(signingString), header.Algorithm, key)
	if err != nil {
		return "", err
	}
	return signingString + "." + EncodeSegment(sig), nil
}
