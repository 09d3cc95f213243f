// Package keyring provides access to the system keychain for storing
// credentials the CLI needs.
package keyring

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "pagenotes"

// Secret represents a named credential stored in the keychain.
type Secret string

const (
	// OpenAI is the keychain entry for the OpenAI API key.
	OpenAI Secret = "openai-api-key"
	// NotesAPI is the keychain entry for the notes server bearer token.
	NotesAPI Secret = "notes-api-token"
)

// AllSecrets returns all known secrets for iteration.
func AllSecrets() []Secret {
	return []Secret{OpenAI, NotesAPI}
}

// DisplayName returns a human-readable name for the secret.
func (k Secret) DisplayName() string {
	switch k {
	case OpenAI:
		return "openai"
	case NotesAPI:
		return "notes-api"
	default:
		return string(k)
	}
}

// Get retrieves a secret from the system keychain.
func Get(secret Secret) (string, error) {
	value, err := keyring.Get(serviceName, string(secret))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", secret.DisplayName(), err)
	}

	return value, nil
}

// Set stores a secret in the system keychain.
func Set(secret Secret, value string) error {
	if err := keyring.Set(serviceName, string(secret), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", secret.DisplayName(), err)
	}

	return nil
}

// IsSet checks if a secret exists in the keychain.
func IsSet(secret Secret) bool {
	_, err := keyring.Get(serviceName, string(secret))

	return err == nil
}

// Resolve returns explicit when it is non-empty, else the keychain value.
// A keychain miss yields "".
func Resolve(explicit string, secret Secret) string {
	if explicit != "" {
		return explicit
	}

	value, err := Get(secret)
	if err != nil {
		return ""
	}

	return value
}

// SecretFromName maps a display name (e.g., "openai") to a Secret.
func SecretFromName(name string) (Secret, error) {
	for _, s := range AllSecrets() {
		if s.DisplayName() == name {
			return s, nil
		}
	}

	return "", fmt.Errorf("unknown secret: %s", name)
}
