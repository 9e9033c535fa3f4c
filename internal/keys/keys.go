// internal/keys/keys.go

// Package keys stores provider API keys in the OS keyring, with a
// file-based fallback for environments without one (CI, codespaces).
package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "pagelift"
	// FallbackDir is the directory for file-based key storage (when keyring fails)
	FallbackDir = ".pagelift/keys"
)

// useFileBasedStorage checks if we should use file-based storage
var fileBasedStorageCache *bool

func useFileBasedStorage() bool {
	if fileBasedStorageCache != nil {
		return *fileBasedStorageCache
	}

	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		result := true
		fileBasedStorageCache = &result
		return true
	}

	testKey := "_test_keyring_access_"
	err := keyring.Set(KeyringService, testKey, "test")
	result := (err != nil)
	fileBasedStorageCache = &result

	if !result {
		keyring.Delete(KeyringService, testKey)
	}

	return result
}

func keyDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, FallbackDir)
	return dir, os.MkdirAll(dir, 0700)
}

func keyPath(provider string) (string, error) {
	dir, err := keyDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, provider+".key"), nil
}

// Set stores an API key for a provider.
func Set(provider, apiKey string) error {
	provider = normalize(provider)
	if provider == "" {
		return fmt.Errorf("provider name is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("API key is empty")
	}

	if useFileBasedStorage() {
		path, err := keyPath(provider)
		if err != nil {
			return fmt.Errorf("resolve key path: %w", err)
		}
		if err := os.WriteFile(path, []byte(apiKey), 0600); err != nil {
			return fmt.Errorf("write key file: %w", err)
		}
		log.Debug().Str("provider", provider).Msg("API key stored in file fallback")
		return nil
	}

	if err := keyring.Set(KeyringService, provider, apiKey); err != nil {
		return fmt.Errorf("store key in keyring: %w", err)
	}
	log.Debug().Str("provider", provider).Msg("API key stored in keyring")
	return nil
}

// Get retrieves a stored API key. The provider's environment variable
// (ANTHROPIC_API_KEY, OPENAI_API_KEY) takes precedence so CI can run
// without a keyring.
func Get(provider string) (string, error) {
	provider = normalize(provider)

	if env := os.Getenv(strings.ToUpper(provider) + "_API_KEY"); env != "" {
		return env, nil
	}

	if useFileBasedStorage() {
		path, err := keyPath(provider)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("no API key stored for %s", provider)
			}
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	key, err := keyring.Get(KeyringService, provider)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no API key stored for %s", provider)
		}
		return "", fmt.Errorf("read key from keyring: %w", err)
	}
	return key, nil
}

// Delete removes a stored API key. Missing keys are not an error.
func Delete(provider string) error {
	provider = normalize(provider)

	if useFileBasedStorage() {
		path, err := keyPath(provider)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, provider); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("delete key from keyring: %w", err)
	}
	return nil
}

// List returns providers with keys in the store itself. Environment
// variables are deliberately not consulted: a key that only exists in the
// environment is not something `keys delete` can remove.
func List() ([]string, error) {
	var providers []string
	for _, p := range []string{"anthropic", "openai"} {
		if hasStored(p) {
			providers = append(providers, p)
		}
	}
	return providers, nil
}

// hasStored reports whether the file fallback or keyring holds a key.
func hasStored(provider string) bool {
	if useFileBasedStorage() {
		path, err := keyPath(provider)
		if err != nil {
			return false
		}
		_, err = os.Stat(path)
		return err == nil
	}

	_, err := keyring.Get(KeyringService, provider)
	return err == nil
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
