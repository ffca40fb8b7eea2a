package openai

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// KeySource resolves the bearer token sent to the completion endpoint. An
// empty key is valid: local backends usually run without one.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a key supplied directly through configuration.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	return strings.TrimSpace(string(k)), nil
}

// TokenGetter is satisfied by *paramstore.Client.
type TokenGetter interface {
	Token(ctx context.Context, name string) (string, error)
}

// ParamStoreKey reads the key from Parameter Store on first use and reuses
// it for the lifetime of the process. Failed lookups are not cached.
type ParamStoreKey struct {
	getter TokenGetter
	name   string

	mu     sync.Mutex
	apiKey string
}

func NewParamStoreKey(getter TokenGetter, paramPrefix string) (*ParamStoreKey, error) {
	if getter == nil {
		return nil, errors.New("openai: token getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("openai: parameter prefix must not be empty")
	}
	return &ParamStoreKey{getter: getter, name: paramPrefix + "/open-ai-token"}, nil
}

func (k *ParamStoreKey) APIKey(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.apiKey != "" {
		return k.apiKey, nil
	}
	key, err := k.getter.Token(ctx, k.name)
	if err != nil {
		return "", err
	}
	k.apiKey = key
	return key, nil
}
