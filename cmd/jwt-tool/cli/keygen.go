package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/keymaterial"
)

// KeygenCmd generates RSA key
type KeygenCmd struct {
	Bits  int  `help:"key size in bits" default:"2048"`
	Pkcs8 bool `help:"encode the key in PKCS#8 format"`
}

// Run the command
func (a *KeygenCmd) Run(ctx *Cli) error {
	key, err := keymaterial.Generate(a.Bits)
	if err != nil {
		return errors.WithMessage(err, "unable to generate key")
	}

	var pem []byte
	if a.Pkcs8 {
		pem, err = key.EncodePKCS8PEM()
		if err != nil {
			return err
		}
	} else {
		pem = key.EncodePEM()
	}

	_, _ = ctx.Writer().Write(pem)
	return nil
}
