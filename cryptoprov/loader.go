package cryptoprov

import (
	"context"
	"crypto"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "cryptoprov")

// SignerLoader is interface for loading signer by key location
type SignerLoader func(ctx context.Context, location *KeyLocation) (crypto.Signer, error)

var (
	lockLoaders sync.RWMutex
	loaders     = make(map[string]SignerLoader)
)

// Register signer loader by location scheme
func Register(scheme string, loader SignerLoader) error {
	lockLoaders.Lock()
	defer lockLoaders.Unlock()

	scheme = strings.ToLower(scheme)
	if _, ok := loaders[scheme]; ok {
		return errors.Errorf("already registered: %s", scheme)
	}

	loaders[scheme] = loader

	return nil
}

// Unregister signer loader by location scheme
func Unregister(scheme string) (SignerLoader, error) {
	lockLoaders.Lock()
	defer lockLoaders.Unlock()

	scheme = strings.ToLower(scheme)
	if loader, ok := loaders[scheme]; ok {
		delete(loaders, scheme)
		return loader, nil
	}

	return nil, errors.Errorf("not registered: %s", scheme)
}

// Registered returns registered schemes
func Registered() []string {
	lockLoaders.RLock()
	defer lockLoaders.RUnlock()

	list := []string{}
	for m := range loaders {
		list = append(list, m)
	}
	slices.Sort(list)
	return list
}

// LoadSigner returns signer for the key location.
// The location can be PEM text, file path, file:// URI,
// or URI with a registered scheme.
func LoadSigner(ctx context.Context, location string) (crypto.Signer, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("key location not provided")
	}

	if strings.Contains(location, "-----") {
		return NewSignerFromPEM([]byte(location))
	}
	if file, ok := strings.CutPrefix(location, "file://"); ok {
		return NewSignerFromFile(file)
	}
	if !strings.Contains(location, "://") {
		return NewSignerFromFile(location)
	}

	kl, err := ParseKeyLocation(location)
	if err != nil {
		return nil, err
	}

	lockLoaders.RLock()
	loader, ok := loaders[kl.Scheme]
	lockLoaders.RUnlock()
	if !ok {
		return nil, errors.Errorf("provider not registered: %s", kl.Scheme)
	}

	logger.KV(xlog.DEBUG, "scheme", kl.Scheme, "key", kl.KeyID)

	s, err := loader(ctx, kl)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to load key: %s", kl.KeyID)
	}
	return s, nil
}
