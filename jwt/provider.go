package jwt

import (
	"context"
	"crypto"
	"crypto/rsa"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/cryptoprov"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
	jose "github.com/go-jose/go-jose/v3"
	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "jwt")

// Config provides token issuer configuration
type Config struct {
	// Issuer specifies issuer claim
	Issuer string `json:"issuer" yaml:"issuer"`
	// Algorithm specifies signature algorithm,
	// if empty then it's selected by the key size
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	// Type specifies "typ" header, JWT by default
	Type string `json:"type" yaml:"type"`
	// Headers specifies extra headers
	Headers map[string]string `json:"headers" yaml:"headers"`
	// PrivateKey specifies the key location: PEM, file path, or KMS URI
	PrivateKey string `json:"private_key" yaml:"private_key"`
	// KeyIDThumbprint specifies to set "kid" header to the key thumbprint,
	// unless kid is provided in Headers
	KeyIDThumbprint bool `json:"kid_thumbprint" yaml:"kid_thumbprint"`
	// TokenExpiry specifies default token lifetime, such as 8h
	TokenExpiry string `json:"token_expiry" yaml:"token_expiry"`
}

// Provider signs tokens with the configured key.
// It is safe for concurrent use.
type Provider struct {
	cfg    Config
	issuer string
	header Header
	signer crypto.Signer
	expiry time.Duration
	jwk    *jose.JSONWebKey
}

// LoadConfig returns configuration loaded from a file
func LoadConfig(file string) (*Config, error) {
	if file == "" {
		return &Config{}, nil
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to read file")
	}

	var config Config
	if strings.HasSuffix(file, ".json") {
		err = json.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable parse JSON: %s", file)
		}
	} else {
		err = yaml.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable parse YAML: %s", file)
		}
	}

	if config.PrivateKey == "" {
		return nil, errors.Errorf("missing private_key: %q", file)
	}
	return &config, nil
}

// Load returns new provider
func Load(ctx context.Context, cfgfile string) (*Provider, error) {
	cfg, err := LoadConfig(cfgfile)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// MustNew returns new provider
func MustNew(ctx context.Context, cfg *Config) *Provider {
	p, err := New(ctx, cfg)
	if err != nil {
		logger.Panicf("unable to create provider: %+v", err)
	}
	return p
}

// New returns new provider with the signer loaded from cfg.PrivateKey
func New(ctx context.Context, cfg *Config) (*Provider, error) {
	if cfg.Issuer == "" {
		return nil, errors.Errorf("issuer not configured")
	}
	if cfg.PrivateKey == "" {
		return nil, errors.Errorf("private key not configured")
	}
	signer, err := cryptoprov.LoadSigner(ctx, cfg.PrivateKey)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to load private key")
	}
	return NewWithSigner(cfg, signer)
}

// NewWithSigner returns new provider with the given signer
func NewWithSigner(cfg *Config, signer crypto.Signer) (*Provider, error) {
	if cfg.Issuer == "" {
		return nil, errors.Errorf("issuer not configured")
	}
	if isNil(signer) {
		return nil, errors.Errorf("signer not provided")
	}

	p := &Provider{
		issuer: cfg.Issuer,
		signer: signer,
	}
	if err := copier.CopyWithOption(&p.cfg, cfg, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.WithStack(err)
	}

	alg, err := selectAlgorithm(cfg.Algorithm, signer.Public())
	if err != nil {
		return nil, err
	}

	if cfg.TokenExpiry != "" {
		p.expiry, err = time.ParseDuration(cfg.TokenExpiry)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid token_expiry")
		}
	}

	p.header = NewHeader(alg, cfg.Headers)
	if cfg.Type != "" {
		p.header.Type = cfg.Type
	}

	kid := p.header.Extra["kid"]
	if kid == "" && cfg.KeyIDThumbprint {
		kid, err = KeyThumbprint(signer.Public())
		if err != nil {
			return nil, err
		}
		if p.header.Extra == nil {
			p.header.Extra = map[string]string{}
		}
		p.header.Extra["kid"] = kid
	}

	p.jwk, err = NewJWK(signer.Public(), alg, kid)
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.INFO, "issuer", p.issuer, "alg", alg, "kid", p.jwk.KeyID)
	return p, nil
}

// selectAlgorithm returns the configured algorithm,
// or the one matching the key size
func selectAlgorithm(configured string, pub crypto.PublicKey) (Algorithm, error) {
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return "", errors.Errorf("public key not supported: %T", pub)
	}
	if configured != "" {
		return ParseAlgorithm(configured)
	}

	keySize := rsaPub.N.BitLen()
	switch {
	case keySize >= 4096:
		return RS512, nil
	case keySize >= 3072:
		return RS384, nil
	default:
		return RS256, nil
	}
}

// Issuer returns the issuer name
func (p *Provider) Issuer() string {
	return p.issuer
}

// Header returns the header of issued tokens
func (p *Provider) Header() Header {
	return p.header.WithType(p.header.Type)
}

// TokenExpiry returns the default token lifetime
func (p *Provider) TokenExpiry() time.Duration {
	return p.expiry
}

// PublicKey returns the public key of the signer
func (p *Provider) PublicKey() crypto.PublicKey {
	return p.signer.Public()
}

// Config returns a copy of the provider configuration
func (p *Provider) Config() Config {
	var c Config
	_ = copier.CopyWithOption(&c, &p.cfg, copier.Option{DeepCopy: true})
	return c
}

// JWKS returns JSON Web Key Set with the signing key
func (p *Provider) JWKS() *jose.JSONWebKeySet {
	return NewJWKS(p.jwk)
}

// Sign returns signed token with the given claims
func (p *Provider) Sign(claims any) (string, error) {
	defer metricskey.PerfTokenSign.MeasureSince(time.Now(), p.issuer, p.header.Algorithm.String())
	return Generate(p.header, claims, p.signer)
}

// SignToken returns signed token with registered claims and extra claims.
// If expiry is zero, the configured TokenExpiry is used.
func (p *Provider) SignToken(id, subject string, audience []string, expiry time.Duration, extra Claims) (string, Claims, error) {
	if expiry == 0 {
		expiry = p.expiry
	}
	claims := CreateClaims(id, subject, p.issuer, audience, expiry, extra)

	token, err := p.Sign(claims)
	if err != nil {
		return "", nil, errors.WithMessagef(err, "failed to sign token")
	}
	return token, claims, nil
}
