package jwt

/*
MIT License.

Copyright 2022 Denis Issoupov

Permission is hereby granted, free of charge, to any person obtaining
a copy of this software and associated documentation files (the
"Software"), to deal in the Software without restriction, including
without limitation the rights to use, copy, modify, merge, publish,
distribute, sublicense, and/or sell copies of the Software, and to
permit persons to whom the Software is furnished to do so, subject to
the following conditions:

The above copyright notice and this permission notice shall be
included in all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"reflect"

	"github.com/cockroachdb/errors"
)

type hasher struct {
	hash crypto.Hash
}

func (h hasher) HashFunc() crypto.Hash {
	return h.hash
}

// Sign returns RSASSA-PKCS1-v1_5 signature of data.
// The data is hashed with the hash of the algorithm,
// and the digest is signed by the key.
func Sign(data []byte, alg Algorithm, key crypto.Signer) ([]byte, error) {
	if !alg.IsValid() {
		return nil, mark(errors.Errorf("unsupported algorithm: %q", alg), ErrInvalidSignature, "unable to sign")
	}
	if isNil(key) {
		return nil, mark(errors.New("signer not provided"), ErrInvalidSignature, "unable to sign")
	}
	if _, ok := key.Public().(*rsa.PublicKey); !ok {
		return nil, mark(errors.Errorf("public key not supported: %T", key.Public()), ErrInvalidSignature, "unable to sign")
	}

	hash := alg.Hash()
	if !hash.Available() {
		return nil, mark(errors.Errorf("hash not available: %s", hash), ErrInvalidSignature, "unable to sign")
	}
	h := hash.New()
	h.Write(data)

	sig, err := key.Sign(rand.Reader, h.Sum(nil), hasher{hash: hash})
	if err != nil {
		return nil, mark(err, ErrInvalidSignature, "unable to sign")
	}
	return sig, nil
}

// isNil returns true for nil interface and typed nil pointer
func isNil(key crypto.Signer) bool {
	if key == nil {
		return true
	}
	v := reflect.ValueOf(key)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
