package jwt

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims provides generic claims on map
type Claims map[string]any

// CreateClaims returns registered claims merged with extra claims.
// If id is empty, a random UUID is used for "jti".
// Timestamps are encoded as seconds since epoch.
func CreateClaims(id, subject, issuer string, audience []string, expiry time.Duration, extra Claims) Claims {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)

	std := &gojwt.RegisteredClaims{
		ID:        id,
		Issuer:    issuer,
		Subject:   subject,
		Audience:  audience,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
	}
	if expiry > 0 {
		std.ExpiresAt = gojwt.NewNumericDate(now.Add(expiry))
	}

	c := Claims{}
	// registered claims are always normalizable
	_ = c.Add(extra, std)
	return c
}

// Add new claims to the map,
// structs are converted with time.Time values encoded as seconds since epoch
func (c Claims) Add(val ...any) error {
	for _, i := range val {
		if i == nil {
			continue
		}
		switch m := i.(type) {
		case map[string]any:
			c.merge(m)
		case Claims:
			c.merge(m)
		case gojwt.MapClaims:
			c.merge(m)
		default:
			js, err := marshalClaims(i)
			if err != nil {
				return errors.WithMessage(err, "unsupported claims")
			}
			pm, err := parseClaims(js)
			if err != nil {
				return errors.WithMessage(err, "unsupported claims")
			}
			c.merge(pm)
		}
	}
	return nil
}

// To converts the claims to the value pointed to by v.
func (c Claims) To(val any) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.WithStack(err)
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	if err := d.Decode(val); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Marshal returns JSON encoded string
func (c Claims) Marshal() string {
	raw, _ := marshalClaims(c)
	return string(raw)
}

func (c Claims) merge(m map[string]any) {
	for k, v := range m {
		c[k] = v
	}
}

// parseClaims returns claims from JSON object, numbers are kept as json.Number
func parseClaims(raw []byte) (Claims, error) {
	m := Claims{}

	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()

	if err := d.Decode(&m); err != nil {
		return nil, errors.WithStack(err)
	}
	return m, nil
}

// ParseClaims returns claims from JSON object
func ParseClaims(raw []byte) (Claims, error) {
	return parseClaims(raw)
}

// String will return the named claim as a string,
// if the underlying type is not a string,
// it will try and co-oerce it to a string.
func (c Claims) String(k string) string {
	v := c[k]
	if v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	case json.Number:
		return tv.String()
	default:
		return xlog.EscapedString(v)
	}
}

// Int64 will return the named claim as int64
func (c Claims) Int64(k string) int64 {
	switch tv := c[k].(type) {
	case int:
		return int64(tv)
	case int32:
		return int64(tv)
	case int64:
		return tv
	case float64:
		return int64(tv)
	case json.Number:
		i, err := tv.Int64()
		if err != nil {
			return 0
		}
		return i
	case string:
		i, err := strconv.ParseInt(tv, 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// Time will return the named claim of NumericDate type as Time
func (c Claims) Time(k string) *time.Time {
	switch tv := c[k].(type) {
	case time.Time:
		return &tv
	case *time.Time:
		return tv
	case nil:
		return nil
	}
	unix := c.Int64(k)
	if unix == 0 {
		return nil
	}
	t := time.Unix(unix, 0)
	return &t
}
