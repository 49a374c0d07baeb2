// Package keymaterial parses PEM encoded RSA private keys into an immutable
// key handle that implements crypto.Signer with RSASSA-PKCS1-v1_5 padding.
//
// The parser is intentionally narrow: it accepts the PKCS#1
// "RSA PRIVATE KEY" shape, and the PKCS#8 "PRIVATE KEY" shape of an RSA key
// by stripping the fixed 26-byte PKCS#8 prefix. It is not a general ASN.1
// parser, see Parse for details.
package keymaterial
