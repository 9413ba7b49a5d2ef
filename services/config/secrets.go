package config

import (
	"os"
	"strings"
)

// Secret names.
const (
	SecretAPIKey  = "api_key"
	SecretWiFiPSK = "wifi_psk"
)

// KeyringService is the OS keyring service secrets are stored under.
const KeyringService = "telemetry-node"

// EnvName maps a secret name to its environment variable.
func EnvName(name string) string {
	return "TELEMETRY_" + strings.ToUpper(name)
}

// Secret returns a named secret. The environment wins over the keyring, and
// a secret found in neither is "" without error.
func Secret(name string) (string, error) {
	if v, ok := os.LookupEnv(EnvName(name)); ok {
		return v, nil
	}
	return keyringGet(name)
}
