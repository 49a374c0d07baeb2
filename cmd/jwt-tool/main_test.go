package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/effective-security/xjwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kong exit code for parse and validation errors
const usageErrorCode = 80

func TestMain(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"jwt-tool", "version"}, out, errout, exit)
	assert.Equal(t, usageErrorCode, rc)
	assert.Equal(t, "jwt-tool: error: unexpected argument version\n", errout.String())
	assert.Empty(t, out.String())
}

func TestSign(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"jwt-tool", "sign",
		"--key", "../../keymaterial/testdata/rsa2048.pem",
		"--alg", "RS512",
		"--header", "kid=k1",
	}, out, errout, exit)
	require.Equal(t, 0, rc, errout.String())

	token, err := jwt.Decode(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "RS512", token.Algorithm())
	assert.Equal(t, "k1", token.Header["kid"])
	assert.Empty(t, token.Claims)
}

func TestSign_KeyRequired(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"jwt-tool", "sign", "--alg", "RS256"}, out, errout, exit)
	assert.Equal(t, usageErrorCode, rc)
	assert.Contains(t, errout.String(), "missing flags:")
	assert.Empty(t, out.String())
}
