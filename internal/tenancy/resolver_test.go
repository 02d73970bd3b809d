package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSubdomain(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		override string
		want     string
		ok       bool
	}{
		{"header override wins", "localhost:5000", "acme", "acme", true},
		{"header override beats host", "other.example.com", "acme", "acme", true},
		{"production subdomain", "acme.example.com", "", "acme", true},
		{"production subdomain with port", "acme.example.com:8443", "", "acme", true},
		{"deep subdomain takes first label", "acme.eu.example.com", "", "acme", true},
		{"bare domain has no subdomain", "example.com", "", "", false},
		{"localhost unresolved", "localhost", "", "", false},
		{"localhost with port unresolved", "localhost:5000", "", "", false},
		{"loopback ip unresolved", "127.0.0.1:5000", "", "", false},
		{"private network unresolved", "192.168.1.50:5000", "", "", false},
		{"private 10.x unresolved", "10.0.0.7", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveSubdomain(tt.host, tt.override)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
