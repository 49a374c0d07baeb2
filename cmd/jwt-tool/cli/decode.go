package cli

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
)

// DecodeCmd prints the content of a token
type DecodeCmd struct {
	Token string `kong:"arg" required:"" help:"token, or - for stdin"`
}

type decoded struct {
	Header    map[string]any `json:"header"`
	Claims    jwt.Claims     `json:"claims"`
	Signature string         `json:"signature"`
}

// Run the command
func (a *DecodeCmd) Run(ctx *Cli) error {
	raw := a.Token
	if raw == "-" {
		b, err := ctx.ReadFile(raw)
		if err != nil {
			return errors.WithMessage(err, "unable to read token")
		}
		raw = string(b)
	}

	token, err := jwt.Decode(strings.TrimSpace(raw))
	if err != nil {
		return err
	}

	ctx.WriteJSON(decoded{
		Header:    token.Header,
		Claims:    token.Claims,
		Signature: jwt.EncodeSegment(token.Signature),
	})
	return nil
}
