package awskmscrypto

import (
	"context"
	"crypto"
	"crypto/x509"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/cryptoprov"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "awskmscrypto")

// ProviderName specifies a provider name
const ProviderName = "AWSKMS"

// Scheme of key locations served by this package
const Scheme = "awskms"

func init() {
	_ = cryptoprov.Register(Scheme, KmsLoader)
}

// KmsClient interface
type KmsClient interface {
	DescribeKey(context.Context, *kms.DescribeKeyInput, ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
	GetPublicKey(context.Context, *kms.GetPublicKeyInput, ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(context.Context, *kms.SignInput, ...func(*kms.Options)) (*kms.SignOutput, error)
}

// KmsClientFactory override for unittest
var KmsClientFactory = func(cfg aws.Config, optFns ...func(*kms.Options)) KmsClient {
	return kms.NewFromConfig(cfg, optFns...)
}

// KmsLoader returns signer for awskms://key-id?region=...&endpoint=... location
func KmsLoader(ctx context.Context, kl *cryptoprov.KeyLocation) (crypto.Signer, error) {
	client, err := NewClient(ctx, kl.Attribute("region", ""), kl.Attribute("endpoint", ""))
	if err != nil {
		return nil, err
	}
	return GetSigner(ctx, client, kl.KeyID)
}

// NewClient returns KMS client for the region and optional custom endpoint.
// Static credentials are taken from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY
// when present, otherwise the default credentials chain is used.
func NewClient(ctx context.Context, region, endpoint string) (KmsClient, error) {
	var awsops []func(*awsconfig.LoadOptions) error

	if region != "" {
		awsops = append(awsops, awsconfig.WithRegion(region))
	}

	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	token := os.Getenv("AWS_SESSION_TOKEN")
	if id != "" && secret != "" {
		awsops = append(awsops, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(id, secret, token)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsops...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var kmsops []func(*kms.Options)
	if endpoint != "" {
		kmsops = append(kmsops, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	logger.KV(xlog.DEBUG, "region", region, "endpoint", endpoint)
	return KmsClientFactory(cfg, kmsops...), nil
}

// GetSigner returns signer for the key ID
func GetSigner(ctx context.Context, client KmsClient, keyID string) (crypto.Signer, error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), ProviderName, "getkey")

	logger.KV(xlog.INFO, "api", "GetKey", "keyID", keyID)

	ki, err := client.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: &keyID})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to describe key, id=%s", keyID)
	}

	resp, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: &keyID})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get public key, id=%s", keyID)
	}

	pub, err := x509.ParsePKIXPublicKey(resp.PublicKey)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to parse public key, id=%s", keyID)
	}

	var label string
	if ki.KeyMetadata != nil {
		label = aws.ToString(ki.KeyMetadata.Description)
	}
	return NewSigner(keyID, label, resp.SigningAlgorithms, pub, client), nil
}
