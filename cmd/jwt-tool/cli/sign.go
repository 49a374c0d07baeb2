package cli

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/cryptoprov"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xlog"

	// register KMS key providers
	_ "github.com/effective-security/xjwt/cryptoprov/awskmscrypto"
	_ "github.com/effective-security/xjwt/cryptoprov/gcpkmscrypto"
)

// SignCmd signs claims
type SignCmd struct {
	Key    string            `help:"key location: PEM file, file://, awskms:// or gcpkms:// URI" xor:"source" required:""`
	Config string            `help:"issuer configuration file" xor:"source" required:""`
	Alg    string            `help:"signature algorithm, by the key size if not specified"`
	Typ    string            `help:"typ header" default:"JWT"`
	Header map[string]string `help:"extra headers, as key=value"`
	Claims string            `help:"JSON claims file, - for stdin"`
	NowIat bool              `name:"now-iat" help:"set iat claim to the current time, if not provided"`
}

// Run the command
func (a *SignCmd) Run(ctx *Cli) error {
	claims := jwt.Claims{}
	if a.Claims != "" {
		raw, err := ctx.ReadFile(a.Claims)
		if err != nil {
			return errors.WithMessage(err, "unable to load claims")
		}
		claims, err = jwt.ParseClaims(raw)
		if err != nil {
			return errors.WithMessage(err, "unable to parse claims")
		}
	}
	if a.NowIat && claims["iat"] == nil {
		claims["iat"] = time.Now()
	}

	var token string
	if a.Config != "" {
		p, err := jwt.Load(ctx.Context(), a.Config)
		if err != nil {
			return err
		}
		token, err = p.Sign(claims)
		if err != nil {
			return err
		}
	} else {
		signer, err := cryptoprov.LoadSigner(ctx.Context(), a.Key)
		if err != nil {
			return errors.WithMessage(err, "unable to load key")
		}
		alg := jwt.RS256
		if a.Alg != "" {
			if alg, err = jwt.ParseAlgorithm(a.Alg); err != nil {
				return err
			}
		}

		h := jwt.NewHeader(alg, a.Header).WithType(a.Typ)
		token, err = jwt.Generate(h, claims, signer)
		if err != nil {
			return err
		}
	}

	logger.KV(xlog.DEBUG, "claims", claims.Marshal())
	fmt.Fprintln(ctx.Writer(), token)
	return nil
}
