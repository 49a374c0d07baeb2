package gcpkmscrypto

import (
	"context"
	"crypto"
	"crypto/rsa"
	"io"
	"reflect"
	"strings"
	"time"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Signer implements crypto.Signer interface
type Signer struct {
	keyName   string
	algorithm kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm
	pubKey    crypto.PublicKey
	kmsClient KmsClient
}

// NewSigner creates new signer
func NewSigner(keyName string, algorithm kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm, publicKey crypto.PublicKey, kmsClient KmsClient) crypto.Signer {
	logger.KV(xlog.DEBUG, "name", keyName, "algo", algorithm.String())
	return &Signer{
		keyName:   keyName,
		algorithm: algorithm,
		pubKey:    publicKey,
		kmsClient: kmsClient,
	}
}

// KeyName returns key version resource name
func (s *Signer) KeyName() string {
	return s.keyName
}

// Algorithm returns KMS algorithm of the key
func (s *Signer) Algorithm() kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm {
	return s.algorithm
}

// Public returns public key for the signer
func (s *Signer) Public() crypto.PublicKey {
	return s.pubKey
}

func (s *Signer) String() string {
	return "name=" + s.keyName + ", algo=" + s.algorithm.String()
}

// Sign implements signing operation
func (s *Signer) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), ProviderName, "sign")

	if _, ok := s.pubKey.(*rsa.PublicKey); !ok {
		return nil, errors.Errorf("unsupported type of public key: %s", reflect.TypeOf(s.pubKey))
	}
	if !strings.HasPrefix(s.algorithm.String(), "RSA_SIGN_PKCS1_") {
		return nil, errors.Errorf("unsupported key algorithm: %s", s.algorithm.String())
	}

	d, err := kmsDigest(digest, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to determine digest")
	}

	req := &kmspb.AsymmetricSignRequest{
		Name:         s.keyName,
		Digest:       d,
		DigestCrc32C: wrapperspb.Int64(checksum(digest)),
	}
	resp, err := s.kmsClient.AsymmetricSign(context.Background(), req)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to sign")
	}
	if !resp.GetVerifiedDigestCrc32C() {
		return nil, errors.New("digest corrupted in transit")
	}
	if resp.GetSignatureCrc32C().GetValue() != checksum(resp.GetSignature()) {
		return nil, errors.New("signature corrupted in transit")
	}
	return resp.GetSignature(), nil
}

func kmsDigest(digest []byte, opts crypto.SignerOpts) (*kmspb.Digest, error) {
	if opts == nil {
		return nil, errors.New("hash function is not specified")
	}
	if _, ok := opts.(*rsa.PSSOptions); ok {
		return nil, errors.New("PSS padding is not supported")
	}
	switch opts.HashFunc() {
	case crypto.SHA256:
		return &kmspb.Digest{Digest: &kmspb.Digest_Sha256{Sha256: digest}}, nil
	case crypto.SHA384:
		return &kmspb.Digest{Digest: &kmspb.Digest_Sha384{Sha384: digest}}, nil
	case crypto.SHA512:
		return &kmspb.Digest{Digest: &kmspb.Digest_Sha512{Sha512: digest}}, nil
	default:
		return nil, errors.Errorf("unsupported hash: %s", opts.HashFunc())
	}
}
