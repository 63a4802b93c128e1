package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name used for stored passwords.
const KeyringService = "devintest"

// ResolvePassword returns desc with its password taken from the OS keyring
// when enabled and an entry exists for desc.KeyringAccount(). A missing entry
// keeps the INI password.
func ResolvePassword(desc Descriptor, enabled bool) (Descriptor, error) {
	if !enabled {
		return desc, nil
	}

	pw, err := keyring.Get(KeyringService, desc.KeyringAccount())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return desc, nil
		}
		return desc, fmt.Errorf("keyring lookup: %w", err)
	}

	desc.Password = pw
	return desc, nil
}

// StorePassword saves password in the OS keyring for desc.
func StorePassword(desc Descriptor, password string) error {
	if err := keyring.Set(KeyringService, desc.KeyringAccount(), password); err != nil {
		return fmt.Errorf("keyring store: %w", err)
	}
	return nil
}
