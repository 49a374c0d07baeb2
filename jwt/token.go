package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// Token is unverified content of a compact JWT
type Token struct {
	Raw       string         // The raw token
	Header    map[string]any // The first segment of the token
	Claims    Claims         // The second segment of the token
	Signature []byte         // The third segment of the token
}

// Algorithm returns the "alg" header
func (t *Token) Algorithm() string {
	alg, _ := t.Header["alg"].(string)
	return alg
}

// SigningString returns the header and payload segments
func (t *Token) SigningString() string {
	return t.Raw[:strings.LastIndex(t.Raw, ".")]
}

// DecodeSegment JWT specific base64url encoding with padding stripped
func DecodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(seg)
}

// EncodeSegment returns JWT specific base64url encoding with padding stripped
func EncodeSegment(seg []byte) string {
	return base64.RawURLEncoding.EncodeToString(seg)
}

// isSegment returns true if s is non-empty base64url text
func isSegment(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' ||
			c >= 'a' && c <= 'z' ||
			c >= '0' && c <= '9' ||
			c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// Decode returns the header and claims of the token,
// the signature is NOT verified.
func Decode(raw string) (*Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, errors.Errorf("token contains an invalid number of segments")
	}

	token := &Token{Raw: raw}

	hb, err := DecodeSegment(parts[0])
	if err != nil {
		return nil, errors.WithMessage(err, "unable to decode header")
	}
	if err = json.Unmarshal(hb, &token.Header); err != nil {
		return nil, errors.WithMessage(err, "unable to parse header")
	}

	cb, err := DecodeSegment(parts[1])
	if err != nil {
		return nil, errors.WithMessage(err, "unable to decode claims")
	}
	if token.Claims, err = parseClaims(cb); err != nil {
		return nil, errors.WithMessage(err, "unable to parse claims")
	}

	if token.Signature, err = DecodeSegment(parts[2]); err != nil {
		return nil, errors.WithMessage(err, "unable to decode signature")
	}
	return token, nil
}
