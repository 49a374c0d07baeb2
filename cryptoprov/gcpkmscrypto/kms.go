// Package gcpkmscrypto provides crypto.Signer backed by Google Cloud KMS
// asymmetric RSA_SIGN_PKCS1_* keys.
package gcpkmscrypto

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"hash/crc32"
	"time"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/cryptoprov"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "gcpkmscrypto")

// ProviderName specifies a provider name
const ProviderName = "GCPKMS"

// Scheme of key locations served by this package
const Scheme = "gcpkms"

func init() {
	_ = cryptoprov.Register(Scheme, KmsLoader)
}

// KmsClient interface
type KmsClient interface {
	GetPublicKey(context.Context, *kmspb.GetPublicKeyRequest, ...gax.CallOption) (*kmspb.PublicKey, error)
	AsymmetricSign(context.Context, *kmspb.AsymmetricSignRequest, ...gax.CallOption) (*kmspb.AsymmetricSignResponse, error)
}

// KmsClientFactory override for unittest
var KmsClientFactory = func(ctx context.Context, opts ...option.ClientOption) (KmsClient, error) {
	return kms.NewKeyManagementClient(ctx, opts...)
}

var crc32c = crc32.MakeTable(crc32.Castagnoli)

func checksum(data []byte) int64 {
	return int64(crc32.Checksum(data, crc32c))
}

// KmsLoader returns signer for gcpkms://<key version resource name>?endpoint=...&credentials=<file> location
func KmsLoader(ctx context.Context, kl *cryptoprov.KeyLocation) (crypto.Signer, error) {
	var opts []option.ClientOption
	if ep := kl.Attribute("endpoint", ""); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}
	if creds := kl.Attribute("credentials", ""); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := KmsClientFactory(ctx, opts...)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create KMS client")
	}
	return GetSigner(ctx, client, kl.KeyID)
}

// GetSigner returns signer for the key version resource name
func GetSigner(ctx context.Context, client KmsClient, keyName string) (crypto.Signer, error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), ProviderName, "getkey")

	logger.KV(xlog.INFO, "api", "GetKey", "key", keyName)

	resp, err := client.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{Name: keyName})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get public key, name=%s", keyName)
	}
	if resp.GetPemCrc32C() != nil && resp.GetPemCrc32C().GetValue() != checksum([]byte(resp.GetPem())) {
		return nil, errors.Errorf("public key checksum mismatch, name=%s", keyName)
	}

	block, _ := pem.Decode([]byte(resp.GetPem()))
	if block == nil {
		return nil, errors.Errorf("failed to decode public key, name=%s", keyName)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to parse public key, name=%s", keyName)
	}

	return NewSigner(keyName, resp.GetAlgorithm(), pub, client), nil
}
