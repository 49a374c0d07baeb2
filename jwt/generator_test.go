package jwt_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keymaterial"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rfcHeader  = "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9"
	rfcPayload = "eyJzdWIiOiIxMjM0NTY3ODkwIiwibmFtZSI6IkpvaG4gRG9lIiwiaWF0IjoxNTE2MjM5MDIyfQ"
)

var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type rfcClaims struct {
	Subject  string    `json:"sub"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"iat"`
}

var rfcExample = rfcClaims{
	Subject:  "1234567890",
	Name:     "John Doe",
	IssuedAt: time.Unix(1516239022, 0),
}

var signingMethods = map[jwt.Algorithm]gojwt.SigningMethod{
	jwt.RS256: gojwt.SigningMethodRS256,
	jwt.RS384: gojwt.SigningMethodRS384,
	jwt.RS512: gojwt.SigningMethodRS512,
}

func loadKey(t *testing.T, file string) *keymaterial.PrivateKey {
	t.Helper()
	k, err := keymaterial.ParseFile("../keymaterial/testdata/" + file)
	require.NoError(t, err)
	return k
}

func splitToken(t *testing.T, token string) []string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3, "token: %s", token)
	for _, p := range parts {
		require.Regexp(t, segmentRegex, p)
	}
	return parts
}

func decodeJSON(t *testing.T, seg string) map[string]any {
	t.Helper()
	b, err := jwt.DecodeSegment(seg)
	require.NoError(t, err)
	m := map[string]any{}
	d := json.NewDecoder(strings.NewReader(string(b)))
	d.UseNumber()
	require.NoError(t, d.Decode(&m))
	return m
}

func verifyRSA(t *testing.T, alg jwt.Algorithm, token string, pub crypto.PublicKey) {
	t.Helper()
	i := strings.LastIndex(token, ".")
	sig, err := jwt.DecodeSegment(token[i+1:])
	require.NoError(t, err)

	if method, ok := signingMethods[alg]; ok {
		require.NoError(t, method.Verify(token[:i], sig, pub))
	}
}

func TestGenerate_RFCExample(t *testing.T) {
	key := loadKey(t, "rsa2048.pem")

	token, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, key)
	require.NoError(t, err)

	parts := splitToken(t, token)
	assert.Equal(t, rfcHeader, parts[0])
	assert.Equal(t, rfcPayload, parts[1])
	verifyRSA(t, jwt.RS256, token, key.Public())

	// verify with the full parser of the third party library
	parsed, err := gojwt.Parse(token, func(*gojwt.Token) (any, error) {
		return key.Public(), nil
	}, gojwt.WithValidMethods([]string{"RS256"}), gojwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "1234567890", sub)

	// deterministic
	token2, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, key)
	require.NoError(t, err)
	assert.Equal(t, token, token2)
}

func TestGenerate_Algorithms(t *testing.T) {
	key := loadKey(t, "rsa2048.pem")

	signatures := map[string]jwt.Algorithm{}
	var payload string
	for _, alg := range jwt.Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			token, err := jwt.Generate(jwt.NewHeader(alg, map[string]string{"kid": "k1"}), rfcExample, key)
			require.NoError(t, err)

			parts := splitToken(t, token)
			h := decodeJSON(t, parts[0])
			assert.Equal(t, alg.String(), h["alg"])
			assert.Equal(t, "JWT", h["typ"])
			assert.Equal(t, "k1", h["kid"])

			if payload == "" {
				payload = parts[1]
			}
			assert.Equal(t, payload, parts[1], "payload must not depend on algorithm")

			_, dup := signatures[parts[2]]
			assert.False(t, dup, "signature must depend on algorithm")
			signatures[parts[2]] = alg

			verifyRSA(t, alg, token, key.Public())
		})
	}
}

func TestGenerate_RS256vsRS512(t *testing.T) {
	key := loadKey(t, "rsa2048.pem")

	t256, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, key)
	require.NoError(t, err)
	t512, err := jwt.Generate(jwt.NewHeader(jwt.RS512, nil), rfcExample, key)
	require.NoError(t, err)

	p256 := splitToken(t, t256)
	p512 := splitToken(t, t512)
	assert.NotEqual(t, p256[0], p512[0])
	assert.Equal(t, p256[1], p512[1])
	assert.NotEqual(t, p256[2], p512[2])
}

func TestGenerate_CanonicalHeader(t *testing.T) {
	key := loadKey(t, "rsa2048.pem")

	h := jwt.NewHeader(jwt.RS384, map[string]string{
		"alg": "none",
		"typ": "fake",
		"kid": "k1",
		"cty": "JWT",
	})
	token, err := jwt.Generate(h, rfcExample, key)
	require.NoError(t, err)

	parts := splitToken(t, token)
	b, err := jwt.DecodeSegment(parts[0])
	require.NoError(t, err)
	assert.Equal(t, `{"cty":"JWT","kid":"k1","alg":"RS384","typ":"JWT"}`, string(b))
	assert.Equal(t, 1, strings.Count(string(b), `"alg"`))
	assert.Equal(t, 1, strings.Count(string(b), `"typ"`))

	h = h.WithType("at+jwt")
	token, err = jwt.Generate(h, rfcExample, key)
	require.NoError(t, err)
	assert.Equal(t, "at+jwt", decodeJSON(t, splitToken(t, token)[0])["typ"])
}

func TestGenerate_KeyChange(t *testing.T) {
	k1 := loadKey(t, "rsa2048.pem")
	k2 := loadKey(t, "rsa4096.pem")

	t1, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, k1)
	require.NoError(t, err)
	t2, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, k2)
	require.NoError(t, err)

	p1 := splitToken(t, t1)
	p2 := splitToken(t, t2)
	assert.Equal(t, p1[0], p2[0])
	assert.Equal(t, p1[1], p2[1])
	assert.NotEqual(t, p1[2], p2[2])
	verifyRSA(t, jwt.RS256, t2, k2.Public())
}

func TestGenerate_PayloadChange(t *testing.T) {
	key := loadKey(t, "rsa2048.pem")

	c2 := rfcExample
	c2.Name = "John Dof"

	t1, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, key)
	require.NoError(t, err)
	t2, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), c2, key)
	require.NoError(t, err)

	p1 := splitToken(t, t1)
	p2 := splitToken(t, t2)
	assert.Equal(t, p1[0], p2[0])
	assert.NotEqual(t, p1[1], p2[1])
	assert.NotEqual(t, p1[2], p2[2])

	h := jwt.NewHeader(jwt.RS256, map[string]string{"kid": "2"})
	t3, err := jwt.Generate(h, rfcExample, key)
	require.NoError(t, err)
	p3 := splitToken(t, t3)
	assert.NotEqual(t, p1[0], p3[0])
	assert.Equal(t, p1[1], p3[1])
	assert.NotEqual(t, p1[2], p3[2])
}

type failingSigner struct {
	crypto.Signer
}

func (s failingSigner) Sign(io.Reader, []byte, crypto.SignerOpts) ([]byte, error) {
	return nil, errors.New("key too small")
}

func TestGenerate_Errors(t *testing.T) {
	key := loadKey(t, "rsa2048.pem")

	_, err := jwt.Generate(jwt.Header{Algorithm: "HS256"}, rfcExample, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrInvalidHeader))

	_, err = jwt.Generate(jwt.NewHeader(jwt.RS256, nil), map[string]any{"ch": make(chan int)}, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrInvalidPayload))

	_, err = jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, failingSigner{Signer: key})
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrInvalidSignature))
	assert.Equal(t, "unable to sign: key too small", err.Error())

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, err = jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, ecKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrInvalidSignature))

	_, err = jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, nil)
	assert.True(t, errors.Is(err, jwt.ErrInvalidSignature))
}

func TestGenerate_Concurrent(t *testing.T) {
	key := loadKey(t, "rsa2048.pem")

	expected, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), rfcExample, key)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claims := rfcExample
			if i%2 == 1 {
				claims.Name = "Jane Doe"
			}
			token, err := jwt.Generate(jwt.NewHeader(jwt.RS256, nil), claims, key)
			if !assert.NoError(t, err) {
				return
			}
			if i%2 == 0 {
				assert.Equal(t, expected, token)
			} else {
				assert.NotEqual(t, expected, token)
			}
		}(i)
	}
	wg.Wait()
}
