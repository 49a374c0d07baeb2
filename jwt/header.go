package jwt

import "maps"

// DefaultType is the default "typ" header
const DefaultType = "JWT"

// Header describes JOSE header of the token.
// The "alg" and "typ" values always come from Algorithm and Type,
// entries with these names in Extra are ignored.
type Header struct {
	// Type is "typ" header, JWT if empty
	Type string
	// Algorithm is "alg" header and the signature algorithm
	Algorithm Algorithm
	// Extra headers, such as "kid"
	Extra map[string]string
}

// NewHeader returns Header of JWT type
func NewHeader(alg Algorithm, extra map[string]string) Header {
	return Header{
		Type:      DefaultType,
		Algorithm: alg,
		Extra:     maps.Clone(extra),
	}
}

// WithType returns a copy of the header with a different type
func (h Header) WithType(typ string) Header {
	h.Type = typ
	h.Extra = maps.Clone(h.Extra)
	return h
}

func (h Header) typ() string {
	if h.Type == "" {
		return DefaultType
	}
	return h.Type
}
