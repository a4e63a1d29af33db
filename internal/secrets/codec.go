package secrets

import (
	"encoding/json"
	"fmt"
)

// marshal encodes a secret as JSON and seals it.
func marshal(enc *Encryption, secret *Secret) ([]byte, error) {
	data, err := json.Marshal(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encode secret %q: %w", secret.Name, err)
	}
	return enc.Seal(data)
}

// unmarshal opens a sealed payload and decodes it.
func unmarshal(enc *Encryption, name string, data []byte) (*Secret, error) {
	plaintext, err := enc.Open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open secret %q: %w", name, err)
	}

	var secret Secret
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return nil, fmt.Errorf("failed to decode secret %q: %w", name, err)
	}
	if secret.Name == "" {
		secret.Name = name
	}
	if secret.Values == nil {
		secret.Values = map[string]any{}
	}
	return &secret, nil
}
