// Package validate checks untrusted strings that reach the service through
// configuration or request paths.
package validate

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

var (
	ErrEmpty            = errors.New("value is empty")
	ErrTooLong          = errors.New("value is too long")
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrDisallowedScheme = errors.New("URL scheme not allowed")
	ErrPrivateAddress   = errors.New("URL points at a private or loopback address")
)

// URLConstraints restricts accepted URLs.
type URLConstraints struct {
	AllowedSchemes []string
	// BlockPrivate rejects loopback, private and link-local IP literals and
	// localhost. Hostnames are not resolved.
	BlockPrivate bool
	MaxLength    int // 0 means no limit
}

// UpstreamURLConstraints accept http and https endpoints, including local
// mirrors and S3-compatible stores used in development.
var UpstreamURLConstraints = URLConstraints{
	AllowedSchemes: []string{"https", "http"},
	MaxLength:      2048,
}

// PublicURLConstraints only accept https endpoints on public addresses.
var PublicURLConstraints = URLConstraints{
	AllowedSchemes: []string{"https"},
	BlockPrivate:   true,
	MaxLength:      2048,
}

// URL validates s against c and returns it trimmed.
func URL(s string, c URLConstraints) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmpty
	}
	if c.MaxLength > 0 && len(s) > c.MaxLength {
		return "", fmt.Errorf("%w: URL exceeds %d characters", ErrTooLong, c.MaxLength)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if len(c.AllowedSchemes) > 0 && !slices.Contains(c.AllowedSchemes, u.Scheme) {
		return "", fmt.Errorf("%w: got %q, allowed: %v", ErrDisallowedScheme, u.Scheme, c.AllowedSchemes)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	if c.BlockPrivate && isPrivateHost(host) {
		return "", fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return s, nil
}

func isPrivateHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
