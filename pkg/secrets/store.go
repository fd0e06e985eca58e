// Package secrets resolves credentials from layered backends: process
// environment, a SOPS-encrypted file, and the OS keyring, in that order.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrNotFound is returned when no backend holds the requested secret.
var ErrNotFound = errors.New("secret not found")

// Store resolves named secrets.
type Store interface {
	Get(name string) (string, error)
}

// Chain queries stores in order and returns the first hit.
type Chain []Store

func (c Chain) Get(name string) (string, error) {
	for _, store := range c {
		value, err := store.Get(name)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// EnvStore reads secrets from the process environment, uppercasing the name
// and replacing dots with underscores (api.key -> PREFIX_API_KEY).
type EnvStore struct {
	Prefix string
}

// NewEnvStore loads a local .env file if present and resolves against the
// environment with the given prefix.
func NewEnvStore(prefix string) *EnvStore {
	_ = godotenv.Load()
	return &EnvStore{Prefix: prefix}
}

func (s *EnvStore) Get(name string) (string, error) {
	key := strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
	if s.Prefix != "" {
		key = s.Prefix + "_" + key
	}

	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return value, nil
}
