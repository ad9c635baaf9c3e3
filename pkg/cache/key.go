package cache

import (
	"strings"
)

// KeyPrefix namespaces script cache keys.
const KeyPrefix = "banner"

// Key generates a deterministic cache key for a banner identifier.
// Format: banner:<lower-case id>
//
// Example:
//
//	banner:3f1c1e4a-6a3b-4c6e-9d1f-2b7f0c9a8e51
//
// Identifiers are expected to be validated before they reach the cache;
// Key only trims whitespace and folds case so that the same UUID written
// in upper or lower case maps to one entry.
func Key(bannerID string) string {
	return KeyPrefix + ":" + strings.ToLower(strings.TrimSpace(bannerID))
}
