package awskmscrypto

import (
	"context"
	"crypto"
	"crypto/rsa"
	"fmt"
	"io"
	"reflect"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
)

// Signer implements crypto.Signer interface
type Signer struct {
	keyID             string
	label             string
	signingAlgorithms []types.SigningAlgorithmSpec
	pubKey            crypto.PublicKey
	kmsClient         KmsClient
}

// NewSigner creates new signer
func NewSigner(keyID string, label string, signingAlgorithms []types.SigningAlgorithmSpec, publicKey crypto.PublicKey, kmsClient KmsClient) crypto.Signer {
	logger.KV(xlog.DEBUG, "id", keyID, "label", label, "algos", signingAlgorithms)
	return &Signer{
		keyID:             keyID,
		label:             label,
		signingAlgorithms: signingAlgorithms,
		pubKey:            publicKey,
		kmsClient:         kmsClient,
	}
}

// KeyID returns key id of the signer
func (s *Signer) KeyID() string {
	return s.keyID
}

// Label returns key label of the signer
func (s *Signer) Label() string {
	return s.label
}

// Public returns public key for the signer
func (s *Signer) Public() crypto.PublicKey {
	return s.pubKey
}

func (s *Signer) String() string {
	return fmt.Sprintf("id=%s, label=%s",
		s.KeyID(),
		s.Label(),
	)
}

// Sign implements signing operation with RSASSA_PKCS1_V1_5 padding
func (s *Signer) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) (signature []byte, err error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), ProviderName, "sign")

	sigAlgo, err := sigAlgo(s.pubKey, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to determine signature algorithm")
	}
	if len(s.signingAlgorithms) > 0 && !slices.Contains(s.signingAlgorithms, sigAlgo) {
		return nil, errors.Errorf("signing algorithm %s is not supported by key %s", sigAlgo, s.keyID)
	}

	req := &kms.SignInput{
		KeyId:            &s.keyID,
		Message:          digest,
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: sigAlgo,
	}
	resp, err := s.kmsClient.Sign(context.Background(), req)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to sign")
	}
	return resp.Signature, nil
}

func sigAlgo(publicKey crypto.PublicKey, opts crypto.SignerOpts) (types.SigningAlgorithmSpec, error) {
	if _, ok := publicKey.(*rsa.PublicKey); !ok {
		return "", errors.Errorf("unsupported type of public key: %s", reflect.TypeOf(publicKey))
	}
	if opts == nil {
		return "", errors.New("hash function is not specified")
	}
	if _, ok := opts.(*rsa.PSSOptions); ok {
		return "", errors.New("PSS padding is not supported")
	}

	switch opts.HashFunc() {
	case crypto.SHA256:
		return types.SigningAlgorithmSpecRsassaPkcs1V15Sha256, nil
	case crypto.SHA384:
		return types.SigningAlgorithmSpecRsassaPkcs1V15Sha384, nil
	case crypto.SHA512:
		return types.SigningAlgorithmSpecRsassaPkcs1V15Sha512, nil
	default:
		return "", errors.Errorf("unsupported hash: %s", opts.HashFunc())
	}
}
