package jwt_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeString(t *testing.T, seg string) string {
	t.Helper()
	b, err := jwt.DecodeSegment(seg)
	require.NoError(t, err)
	return string(b)
}

func TestEncodeHeader(t *testing.T) {
	tcases := []struct {
		name   string
		header jwt.Header
		exp    string
	}{
		{
			name:   "default",
			header: jwt.NewHeader(jwt.RS256, nil),
			exp:    rfcHeader,
		},
		{
			name: "extra first",
			header: jwt.Header{
				Type:      "at+jwt",
				Algorithm: jwt.RS512,
				Extra:     map[string]string{"kid": "k1", "alg": "HS256", "typ": "x"},
			},
			exp: "eyJraWQiOiJrMSIsImFsZyI6IlJTNTEyIiwidHlwIjoiYXQrand0In0",
		},
		{
			name:   "empty type",
			header: jwt.Header{Algorithm: jwt.RS256},
			exp:    rfcHeader,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			seg, err := jwt.EncodeHeader(tc.header)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, seg)
		})
	}

	_, err := jwt.EncodeHeader(jwt.Header{Algorithm: "ES256"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrInvalidHeader))
	assert.EqualError(t, err, `unable to encode header: unsupported algorithm: "ES256"`)

	_, err = jwt.EncodeHeader(jwt.Header{})
	assert.True(t, errors.Is(err, jwt.ErrInvalidHeader))
}

func TestEncodeHeader_Sorted(t *testing.T) {
	h := jwt.NewHeader(jwt.RS224, map[string]string{"x5t": "t", "cty": "c", "kid": "k"})
	for i := 0; i < 10; i++ {
		seg, err := jwt.EncodeHeader(h)
		require.NoError(t, err)
		assert.Equal(t, `{"cty":"c","kid":"k","x5t":"t","alg":"RS224","typ":"JWT"}`, decodeString(t, seg))
	}
}

type Base struct {
	ID   string `json:"jti"`
	Name string `json:"name"`
}

type unexportedBase struct {
	Hidden string `json:"hidden"`
}

type custom struct{}

func (custom) MarshalJSON() ([]byte, error) {
	return []byte(`"custom"`), nil
}

type extended struct {
	Base
	unexportedBase
	Name     string            `json:"name,omitempty"`
	Expires  *time.Time        `json:"exp,omitempty"`
	NotAfter time.Time         `json:"nbf,omitzero"`
	Skip     string            `json:"-"`
	Scopes   []string          `json:"scp,omitempty"`
	Times    []time.Time       `json:"times,omitempty"`
	Meta     map[string]any    `json:"meta,omitempty"`
	Custom   custom            `json:"custom"`
	Plain    int
	private  string
	Labels   map[string]string `json:"labels"`
}

func TestEncodePayload(t *testing.T) {
	exp := time.Unix(1700000000, 0)

	tcases := []struct {
		name    string
		payload any
		exp     string
	}{
		{
			name:    "rfc",
			payload: rfcExample,
			exp:     `{"sub":"1234567890","name":"John Doe","iat":1516239022}`,
		},
		{
			name:    "pointer",
			payload: &rfcExample,
			exp:     `{"sub":"1234567890","name":"John Doe","iat":1516239022}`,
		},
		{
			name:    "map sorted",
			payload: map[string]any{"z": 1, "a": exp, "m": []any{exp, "s"}},
			exp:     `{"a":1700000000,"m":[1700000000,"s"],"z":1}`,
		},
		{
			name:    "claims",
			payload: jwt.Claims{"iat": &exp},
			exp:     `{"iat":1700000000}`,
		},
		{
			name: "embedded",
			payload: extended{
				Base:           Base{ID: "1", Name: "shadowed"},
				unexportedBase: unexportedBase{Hidden: "h"},
				Expires:        &exp,
				Skip:           "skip",
				Times:          []time.Time{exp},
				Meta:           map[string]any{"at": exp},
				Plain:          2,
				private:        "p",
			},
			exp: `{"jti":"1","exp":1700000000,"times":[1700000000],"meta":{"at":1700000000},"custom":"custom","Plain":2,"labels":null}`,
		},
		{
			name: "omitted",
			payload: extended{
				Name:     "n",
				NotAfter: exp,
				Scopes:   []string{"a", "b"},
				Labels:   map[string]string{},
			},
			exp: `{"jti":"","name":"n","nbf":1700000000,"scp":["a","b"],"custom":"custom","Plain":0,"labels":{}}`,
		},
		{
			name: "registered claims",
			payload: gojwt.RegisteredClaims{
				Subject:   "s",
				Audience:  gojwt.ClaimStrings{"a"},
				ExpiresAt: gojwt.NewNumericDate(exp),
			},
			exp: `{"sub":"s","aud":["a"],"exp":1700000000}`,
		},
		{
			name:    "nil",
			payload: nil,
			exp:     `null`,
		},
		{
			name:    "bytes",
			payload: map[string][]byte{"b": []byte("hi")},
			exp:     `{"b":"aGk="}`,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			seg, err := jwt.EncodePayload(tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, decodeString(t, seg))
			assert.Regexp(t, segmentRegex, seg)
		})
	}
}

type session struct {
	ID     uuid.UUID  `json:"jti"`
	Addr   netip.Addr `json:"ip"`
	Parent *uuid.UUID `json:"parent,omitempty"`
	Level  level      `json:"level"`
}

type level int

func (l *level) MarshalJSON() ([]byte, error) {
	return []byte(`"L` + string(rune('0'+*l)) + `"`), nil
}

func TestEncodePayload_Marshalers(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	parent := uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
	s := &session{
		ID:     id,
		Addr:   netip.MustParseAddr("10.0.0.1"),
		Parent: &parent,
		Level:  2,
	}

	seg, err := jwt.EncodePayload(s)
	require.NoError(t, err)
	assert.Equal(t,
		`{"jti":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","ip":"10.0.0.1","parent":"6ba7b811-9dad-11d1-80b4-00c04fd430c8","level":"L2"}`,
		decodeString(t, seg))

	seg, err = jwt.EncodePayload(jwt.Claims{"jti": id, "ip": netip.MustParseAddr("::1")})
	require.NoError(t, err)
	assert.Equal(t, `{"ip":"::1","jti":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`, decodeString(t, seg))
}

type node struct {
	Name string `json:"name"`
	Next *node  `json:"next,omitempty"`
}

func TestEncodePayload_Cycles(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	s := []any{nil}
	s[0] = s

	n := &node{Name: "a"}
	n.Next = n

	for name, payload := range map[string]any{
		"map":     m,
		"slice":   s,
		"pointer": n,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := jwt.EncodePayload(payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, jwt.ErrInvalidPayload))
			assert.Contains(t, err.Error(), "encountered a cycle via")
		})
	}

	// shared values are not cycles
	shared := map[string]any{"v": 1}
	list := []string{"x"}
	seg, err := jwt.EncodePayload(map[string]any{"a": shared, "b": shared, "c": list, "d": list})
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"v":1},"b":{"v":1},"c":["x"],"d":["x"]}`, decodeString(t, seg))

	seg, err = jwt.EncodePayload(&node{Name: "a", Next: &node{Name: "b"}})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a","next":{"name":"b"}}`, decodeString(t, seg))
}

func TestEncodePayload_Errors(t *testing.T) {
	tcases := []struct {
		name    string
		payload any
		err     string
	}{
		{
			name:    "chan",
			payload: make(chan int),
			err:     "unable to encode payload: unsupported type: chan int",
		},
		{
			name:    "func field",
			payload: struct{ F func() }{F: func() {}},
			err:     "unable to encode payload: field F: unsupported type: func()",
		},
		{
			name:    "complex",
			payload: map[string]any{"c": complex(1, 2)},
			err:     "unable to encode payload: unsupported type: complex128",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := jwt.EncodePayload(tc.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, jwt.ErrInvalidPayload))
			assert.EqualError(t, err, tc.err)
		})
	}
}
