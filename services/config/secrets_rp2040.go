//go:build rp2040

package config

// Boards carry no secrets: the companion modem holds credentials.
var keyringGet = func(string) (string, error) { return "", nil }
