package keymaterial

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// ErrMissingHeaders is returned when PEM text lacks the BEGIN/END delimiter structure
	ErrMissingHeaders = errors.New("missing PEM headers")
	// ErrInvalidKey is returned when the key body can not be decoded,
	// or the DER bytes do not hold an RSA private key
	ErrInvalidKey = errors.New("invalid key")
)

const (
	pemDelimiter = "-----"
	// minPEMSegments is the number of parts produced by splitting
	// "-----BEGIN X-----body-----END X-----" on the delimiter
	minPEMSegments = 5
	// pkcs8PrefixLen is the length of the PKCS#8 PrivateKeyInfo prefix
	// (version and rsaEncryption AlgorithmIdentifier) that wraps
	// a PKCS#1 RSAPrivateKey of 2048 bits and larger
	pkcs8PrefixLen = 26
	sequenceTag    = 0x30
)

var whitespace = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "")

// PrivateKey is an immutable handle over a parsed RSA private key.
// It is safe for concurrent use.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// New wraps already parsed RSA key
func New(key *rsa.PrivateKey) (*PrivateKey, error) {
	if key == nil {
		return nil, errors.Mark(errors.New("nil RSA key"), ErrInvalidKey)
	}
	return &PrivateKey{key: key}, nil
}

// Parse returns PrivateKey from PEM text.
//
// All whitespace is removed before the text is split on "-----",
// the base64 body is the third segment of the split.
// If byte 26 of the decoded DER starts an ASN.1 SEQUENCE that spans the rest
// of the buffer, the first 26 bytes are treated as the PKCS#8 wrapper and
// dropped. This is a fixed-offset heuristic: keys wrapped differently,
// or PKCS#8 keys of unusual sizes, may fail to parse.
func Parse(pemText string) (*PrivateKey, error) {
	compact := whitespace.Replace(pemText)

	segments := strings.Split(compact, pemDelimiter)
	if len(segments) < minPEMSegments {
		return nil, errors.Mark(
			errors.Errorf("expected at least %d PEM segments, got %d", minPEMSegments, len(segments)),
			ErrMissingHeaders)
	}

	der, err := base64.StdEncoding.DecodeString(segments[2])
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "unable to decode key body"), ErrInvalidKey)
	}

	key, err := x509.ParsePKCS1PrivateKey(trimPKCS8Prefix(der))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "unable to parse RSA private key"), ErrInvalidKey)
	}
	return &PrivateKey{key: key}, nil
}

// ParseFile returns PrivateKey loaded from PEM file
func ParseFile(file string) (*PrivateKey, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to load key file")
	}
	k, err := Parse(string(raw))
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to load key from file: %s", file)
	}
	return k, nil
}

// trimPKCS8Prefix returns der[26:] when byte 26 is a SEQUENCE tag and the
// remainder is exactly one SEQUENCE, otherwise der is returned unmodified.
func trimPKCS8Prefix(der []byte) []byte {
	if len(der) <= pkcs8PrefixLen || der[pkcs8PrefixLen] != sequenceTag {
		return der
	}
	inner := der[pkcs8PrefixLen:]

	var seq cryptobyte.String
	input := cryptobyte.String(inner)
	if !input.ReadASN1(&seq, asn1.SEQUENCE) || !input.Empty() {
		return der
	}
	return inner
}

// Public implements crypto.Signer
func (k *PrivateKey) Public() crypto.PublicKey {
	return &k.key.PublicKey
}

// Sign implements crypto.Signer.
// The digest is always signed with PKCS#1 v1.5 padding,
// opts must provide the hash used to produce the digest.
func (k *PrivateKey) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if opts == nil {
		return nil, errors.New("hash function is not specified")
	}
	sig, err := rsa.SignPKCS1v15(rand, k.key, opts.HashFunc(), digest)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return sig, nil
}

// Size returns the modulus size in bits
func (k *PrivateKey) Size() int {
	return k.key.N.BitLen()
}

// RSA returns the underlying key
func (k *PrivateKey) RSA() *rsa.PrivateKey {
	return k.key
}

// Generate returns a new RSA key of the given size
func Generate(bits int) (*PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to generate RSA key")
	}
	return &PrivateKey{key: key}, nil
}

// EncodePEM returns PKCS#1 "RSA PRIVATE KEY" PEM
func (k *PrivateKey) EncodePEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(k.key),
	})
}

// EncodePKCS8PEM returns PKCS#8 "PRIVATE KEY" PEM
func (k *PrivateKey) EncodePKCS8PEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	}), nil
}
