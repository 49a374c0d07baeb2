package jwt

import (
	"crypto"
	// register hash functions used by the RS* family
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"strings"

	"github.com/cockroachdb/errors"
)

// Algorithm is RSASSA-PKCS1-v1_5 signature algorithm,
// the value is used as JWT "alg" header
type Algorithm string

// Supported algorithms
const (
	RS1   Algorithm = "RS1"
	RS224 Algorithm = "RS224"
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
)

var hashMap = map[Algorithm]crypto.Hash{
	RS1:   crypto.SHA1,
	RS224: crypto.SHA224,
	RS256: crypto.SHA256,
	RS384: crypto.SHA384,
	RS512: crypto.SHA512,
}

// Algorithms returns the list of supported algorithms
func Algorithms() []Algorithm {
	return []Algorithm{RS1, RS224, RS256, RS384, RS512}
}

// ParseAlgorithm returns Algorithm by its code
func ParseAlgorithm(code string) (Algorithm, error) {
	a := Algorithm(strings.ToUpper(strings.TrimSpace(code)))
	if !a.IsValid() {
		return "", errors.Errorf("unsupported algorithm: %q", code)
	}
	return a, nil
}

// IsValid returns true for supported algorithms
func (a Algorithm) IsValid() bool {
	_, ok := hashMap[a]
	return ok
}

// Hash returns the hash function of the algorithm,
// or zero value for unsupported algorithm
func (a Algorithm) Hash() crypto.Hash {
	return hashMap[a]
}

// String returns the algorithm code
func (a Algorithm) String() string {
	return string(a)
}

// HashFunc implements crypto.SignerOpts
func (a Algorithm) HashFunc() crypto.Hash {
	return a.Hash()
}
