package delivery

import (
	"fmt"
	"strings"
	"time"
)

// ETag derives the entity tag for a banner version from its identifier and
// last modification time: "<id>-<updatedAt unix millis>".
func ETag(id string, updatedAt time.Time) string {
	return fmt.Sprintf(`"%s-%d"`, id, updatedAt.UnixMilli())
}

// Matches reports whether an If-None-Match header value matches etag.
//
// Comparison is exact; weak validators are not produced by this endpoint
// and a W/ prefix never matches. The header may list several tags, and a
// tag sent without its quotes is still recognized since some embedders
// strip them.
func Matches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}

	bare := strings.Trim(etag, `"`)
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag || candidate == bare {
			return true
		}
	}
	return false
}

// CacheControl renders the Cache-Control value for deliverable responses.
func CacheControl(maxAge, staleWhileRevalidate time.Duration) string {
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(maxAge/time.Second), int(staleWhileRevalidate/time.Second))
}
