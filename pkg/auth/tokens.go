// Package auth manages access tokens for Srclight instances: acquiring them
// through the browser-based login flow and storing them in the OS keychain.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const keyringService = "srclight-cli"

// EnvAccessToken overrides any stored token when set, for CI and scripts.
const EnvAccessToken = "SRCLIGHT_ACCESS_TOKEN"

// TokenStore persists one access token per instance URL. Tokens live in the
// OS keychain; on systems without one (typically headless Linux) they fall
// back to a 0600 file under the user config directory.
type TokenStore struct {
	endpoint string
}

// NewTokenStore returns the token store for the given instance URL.
func NewTokenStore(endpoint string) *TokenStore {
	return &TokenStore{endpoint: endpoint}
}

// Token returns the access token for the instance, or "" when the user has
// not logged in. It satisfies the GraphQL client's TokenProvider.
func (s *TokenStore) Token() (string, error) {
	if t := os.Getenv(EnvAccessToken); t != "" {
		return t, nil
	}
	token, err := keyring.Get(keyringService, s.endpoint)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrUnsupportedPlatform) {
		// Keychain present but unreadable; try the file fallback before
		// giving up.
		if t, ferr := s.readFallback(); ferr == nil {
			return t, nil
		}
		return "", fmt.Errorf("failed to read keychain: %w", err)
	}
	t, ferr := s.readFallback()
	if ferr != nil {
		return "", nil
	}
	return t, nil
}

// Save stores the access token.
func (s *TokenStore) Save(token string) error {
	if err := keyring.Set(keyringService, s.endpoint, token); err == nil {
		return nil
	}
	return s.writeFallback(token)
}

// Delete removes the stored token from both the keychain and the fallback
// file. Deleting a token that was never stored is not an error.
func (s *TokenStore) Delete() error {
	kerr := keyring.Delete(keyringService, s.endpoint)
	if errors.Is(kerr, keyring.ErrNotFound) || errors.Is(kerr, keyring.ErrUnsupportedPlatform) {
		kerr = nil
	}
	ferr := s.deleteFallback()
	if kerr != nil {
		return kerr
	}
	return ferr
}

func fallbackPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "srclight", "tokens.json"), nil
}

func readFallbackFile() (map[string]string, error) {
	path, err := fallbackPath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tokens := map[string]string{}
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("corrupt token file %s: %w", path, err)
	}
	return tokens, nil
}

func (s *TokenStore) readFallback() (string, error) {
	tokens, err := readFallbackFile()
	if err != nil {
		return "", err
	}
	t, ok := tokens[s.endpoint]
	if !ok {
		return "", fmt.Errorf("no token stored for %s", s.endpoint)
	}
	return t, nil
}

func (s *TokenStore) writeFallback(token string) error {
	tokens, err := readFallbackFile()
	if err != nil {
		tokens = map[string]string{}
	}
	tokens[s.endpoint] = token

	path, err := fallbackPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func (s *TokenStore) deleteFallback() error {
	tokens, err := readFallbackFile()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if _, ok := tokens[s.endpoint]; !ok {
		return nil
	}
	delete(tokens, s.endpoint)
	return s.writeAll(tokens)
}

func (s *TokenStore) writeAll(tokens map[string]string) error {
	path, err := fallbackPath()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}
