package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// API keys are opaque bearer secrets: "sb_" + 32 random bytes, URL-safe
// base64 without padding. The prefix makes leaked keys easy to grep for.
const (
	apiKeyPrefix = "sb_"
	apiKeyBytes  = 32
)

// GenerateAPIKey mints a new API key.
func GenerateAPIKey() (string, error) {
	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// LooksLikeAPIKey reports whether a credential string has the API key shape.
func LooksLikeAPIKey(s string) bool {
	return strings.HasPrefix(s, apiKeyPrefix)
}
