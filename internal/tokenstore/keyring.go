package tokenstore

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/zalando/go-keyring"
)

const (
	service = "mansap-cli"
)

// Keyring stores the token in the OS keychain/credential manager, one entry
// per API host.
type Keyring struct {
	key string
}

// NewKeyring returns a keyring store scoped to the host of apiURL.
func NewKeyring(apiURL string) *Keyring {
	return &Keyring{key: keyringKey(apiURL)}
}

// keyringKey returns a unique key for storing tokens per API host
func keyringKey(apiURL string) string {
	host := apiURL
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("token-%s", host)
}

// Save persists the token securely in the OS keychain/credential manager
func (k *Keyring) Save(token string) error {
	if err := keyring.Set(service, k.key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Load retrieves the token from the OS keychain/credential manager
func (k *Keyring) Load() (string, error) {
	token, err := keyring.Get(service, k.key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Delete removes the token from the OS keychain/credential manager
func (k *Keyring) Delete() error {
	if err := keyring.Delete(service, k.key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
