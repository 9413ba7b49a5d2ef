//go:build !rp2040

package config

import (
	"errors"

	"telemetry-node/errcode"

	"github.com/zalando/go-keyring"
)

var keyringGet = func(name string) (string, error) {
	v, err := keyring.Get(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) || errors.Is(err, keyring.ErrUnsupportedPlatform) {
		return "", nil
	}
	if err != nil {
		return "", errcode.Wrap(errcode.Error, "config.Secret", err)
	}
	return v, nil
}
