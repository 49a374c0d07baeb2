// Package jwt generates compact JSON Web Tokens (RFC 7519) signed with
// RSASSA-PKCS1-v1_5 (RS1, RS224, RS256, RS384, RS512).
//
// Generate is the core operation: the header and the claims are serialized
// to JSON, encoded as base64url segments, and the joined segments are signed
// by a crypto.Signer, such as keymaterial.PrivateKey or a KMS backed signer
// from the cryptoprov packages.
//
// Claims are encoded with time.Time values as seconds since epoch.
// Header JSON contains the extra headers in key order, followed by "alg"
// and "typ", which always reflect the header Algorithm and Type.
//
// Provider wraps Generate with configuration, registered claims and JWKS
// publication of the signing key. Token verification is not provided.
package jwt
