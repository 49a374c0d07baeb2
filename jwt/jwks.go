package jwt

import (
	"crypto"
	"crypto/rsa"

	"github.com/cockroachdb/errors"
	jose "github.com/go-jose/go-jose/v3"
)

// KeyThumbprint returns base64url encoded RFC 7638 SHA-256 thumbprint of the key,
// suitable for "kid" header
func KeyThumbprint(pub crypto.PublicKey) (string, error) {
	if _, ok := pub.(*rsa.PublicKey); !ok {
		return "", errors.Errorf("public key not supported: %T", pub)
	}
	jwk := jose.JSONWebKey{Key: pub}
	tp, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return EncodeSegment(tp), nil
}

// NewJWK returns JSON Web Key of the signing key
func NewJWK(pub crypto.PublicKey, alg Algorithm, kid string) (*jose.JSONWebKey, error) {
	if !alg.IsValid() {
		return nil, errors.Errorf("unsupported algorithm: %q", alg)
	}
	if kid == "" {
		var err error
		kid, err = KeyThumbprint(pub)
		if err != nil {
			return nil, err
		}
	}
	jwk := &jose.JSONWebKey{
		Key:       pub,
		KeyID:     kid,
		Algorithm: alg.String(),
		Use:       "sig",
	}
	if !jwk.Valid() {
		return nil, errors.Errorf("invalid public key: %T", pub)
	}
	return jwk, nil
}

// NewJWKS returns JSON Web Key Set with the given keys
func NewJWKS(keys ...*jose.JSONWebKey) *jose.JSONWebKeySet {
	set := &jose.JSONWebKeySet{}
	for _, k := range keys {
		if k != nil {
			set.Keys = append(set.Keys, *k)
		}
	}
	return set
}
