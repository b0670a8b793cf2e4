package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		c       URLConstraints
		wantErr error
	}{
		{"public overpass", "https://overpass-api.de/api/interpreter", PublicURLConstraints, nil},
		{"trimmed", "  https://overpass-api.de/api/interpreter ", PublicURLConstraints, nil},
		{"local mirror allowed upstream", "http://localhost:12345/api/interpreter", UpstreamURLConstraints, nil},
		{"empty", "  ", UpstreamURLConstraints, ErrEmpty},
		{"too long", "https://a.example/" + strings.Repeat("x", 2048), UpstreamURLConstraints, ErrTooLong},
		{"ftp scheme", "ftp://overpass-api.de/", UpstreamURLConstraints, ErrDisallowedScheme},
		{"http not public", "http://overpass-api.de/", PublicURLConstraints, ErrDisallowedScheme},
		{"missing host", "https:///path", PublicURLConstraints, ErrInvalidURL},
		{"localhost", "https://localhost/api", PublicURLConstraints, ErrPrivateAddress},
		{"loopback ip", "https://127.0.0.1/api", PublicURLConstraints, ErrPrivateAddress},
		{"private ip", "https://10.1.2.3/api", PublicURLConstraints, ErrPrivateAddress},
		{"link local", "https://169.254.169.254/latest", PublicURLConstraints, ErrPrivateAddress},
		{"ipv6 loopback", "https://[::1]/api", PublicURLConstraints, ErrPrivateAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URL(tt.in, tt.c)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("URL() error = %v", err)
				}
				if got != strings.TrimSpace(tt.in) {
					t.Errorf("URL() = %q", got)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("URL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntityID(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{"node-42", nil},
		{"way-1", nil},
		{"relation-9223372036854775807", nil},
		{"", ErrEmpty},
		{"node-", ErrInvalidEntityID},
		{"area-5", ErrInvalidEntityID},
		{"node-42;DROP", ErrInvalidEntityID},
		{"node--1", ErrInvalidEntityID},
		{"NODE-1", ErrInvalidEntityID},
	}
	for _, tt := range tests {
		err := EntityID(tt.in)
		if tt.wantErr == nil && err != nil {
			t.Errorf("EntityID(%q) unexpected error %v", tt.in, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("EntityID(%q) error = %v, want %v", tt.in, err, tt.wantErr)
		}
	}
}
