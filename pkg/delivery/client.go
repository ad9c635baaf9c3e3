package delivery

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// uuidLen is the length of the canonical 8-4-4-4-12 form.
const uuidLen = 36

// ParseBannerID validates a banner id and returns it in canonical
// lower-case form. Only the canonical hyphenated form is accepted; the
// braced, URN and hyphen-less spellings uuid.Parse tolerates are rejected.
func ParseBannerID(raw string) (string, error) {
	if len(raw) != uuidLen {
		return "", ErrInvalidID
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}

// clientKey identifies the caller for rate limiting.
// With trustProxy set, the identity is the last X-Forwarded-For hop, which is
// the peer address appended by the trusted proxy. Earlier hops are client
// supplied and never used.
func clientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if hop := lastForwardedHop(r.Header.Values("X-Forwarded-For")); hop != "" {
			return hop
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func lastForwardedHop(values []string) string {
	if len(values) == 0 {
		return ""
	}
	last := values[len(values)-1]
	if i := strings.LastIndex(last, ","); i >= 0 {
		last = last[i+1:]
	}
	return strings.TrimSpace(last)
}

// wantsNoCache reports whether the nocache diagnostic flag is set.
func wantsNoCache(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("nocache")) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
