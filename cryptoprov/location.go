package cryptoprov

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// KeyLocation describes a key served by a registered loader
type KeyLocation struct {
	// Scheme of the location, such as awskms
	Scheme string
	// KeyID is the provider specific key identifier
	KeyID string
	// Attributes are provider specific, such as region or endpoint
	Attributes map[string]string
}

// ParseKeyLocation parses scheme://key-id?attr=value.
// The key ID is kept verbatim, so it may contain ARN or resource path.
func ParseKeyLocation(location string) (*KeyLocation, error) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok || scheme == "" {
		return nil, errors.Errorf("invalid key location: missing scheme")
	}

	keyID, query, _ := strings.Cut(rest, "?")
	keyID = strings.Trim(keyID, "/")
	if keyID == "" {
		return nil, errors.Errorf("invalid key location: missing key ID")
	}

	kl := &KeyLocation{
		Scheme:     strings.ToLower(scheme),
		KeyID:      keyID,
		Attributes: map[string]string{},
	}
	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid key location attributes")
		}
		for k := range values {
			kl.Attributes[strings.ToLower(k)] = strings.TrimSpace(values.Get(k))
		}
	}
	return kl, nil
}

// Attribute returns the attribute value, or the default
func (kl *KeyLocation) Attribute(name, def string) string {
	if v := kl.Attributes[strings.ToLower(name)]; v != "" {
		return v
	}
	return def
}

// String returns the location in URI form
func (kl *KeyLocation) String() string {
	s := kl.Scheme + "://" + kl.KeyID
	if len(kl.Attributes) > 0 {
		q := url.Values{}
		for k, v := range kl.Attributes {
			q.Set(k, v)
		}
		s += "?" + q.Encode()
	}
	return s
}
