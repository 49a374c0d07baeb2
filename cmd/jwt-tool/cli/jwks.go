package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/cryptoprov"
	"github.com/effective-security/xjwt/jwt"
)

// JwksCmd prints JWKS of the key
type JwksCmd struct {
	Key string `help:"key location: PEM file, file://, awskms:// or gcpkms:// URI" required:""`
	Alg string `help:"signature algorithm" default:"RS256"`
	Kid string `help:"key ID, the key thumbprint if not specified"`
}

// Run the command
func (a *JwksCmd) Run(ctx *Cli) error {
	alg, err := jwt.ParseAlgorithm(a.Alg)
	if err != nil {
		return err
	}
	signer, err := cryptoprov.LoadSigner(ctx.Context(), a.Key)
	if err != nil {
		return errors.WithMessage(err, "unable to load key")
	}
	jwk, err := jwt.NewJWK(signer.Public(), alg, a.Kid)
	if err != nil {
		return err
	}
	ctx.WriteJSON(jwt.NewJWKS(jwk))
	return nil
}
