// Package cryptoprov resolves key locations into crypto.Signer.
//
// A location is either PEM text, a file path, or a URI of the form
// scheme://key-id?attr=value. PEM text and files are parsed by the
// keymaterial package, other schemes are served by loaders registered
// with Register, for example by the awskmscrypto and gcpkmscrypto packages:
//
//	awskms://1234abcd-12ab-34cd-56ef-1234567890ab?region=us-west-2
//	gcpkms://projects/p/locations/global/keyRings/r/cryptoKeys/k/cryptoKeyVersions/1
package cryptoprov
