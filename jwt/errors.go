package jwt

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/keymaterial"
)

// Token generation errors, use errors.Is to check the kind
var (
	// ErrMissingHeaders is returned when PEM text lacks the "-----" delimiter structure
	ErrMissingHeaders = keymaterial.ErrMissingHeaders
	// ErrInvalidKey is returned when the key can not be decoded or constructed
	ErrInvalidKey = keymaterial.ErrInvalidKey
	// ErrInvalidHeader is returned when the header can not be serialized
	ErrInvalidHeader = errors.New("invalid header")
	// ErrInvalidPayload is returned when the payload can not be serialized
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInvalidSignature is returned when the signer rejects key, algorithm or data
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidHeaderOrPayload is returned when encoded segments can not form the signing input
	ErrInvalidHeaderOrPayload = errors.New("invalid header or payload")
)

func mark(err error, kind error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), kind)
}
