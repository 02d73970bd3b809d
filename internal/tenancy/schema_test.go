package tenancy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaName(t *testing.T) {
	tests := []struct {
		subdomain string
		want      string
	}{
		{"acme", "tenant_acme"},
		{"acme-co", "tenant_acme_co"},
		{"ACME", "tenant_acme"},
		{"my-long-company-name", "tenant_my_long_company_name"},
		{"a1", "tenant_a1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SchemaName(tt.subdomain), "subdomain %q", tt.subdomain)
	}
}

func TestValidateSchemaName(t *testing.T) {
	valid := []string{
		"tenant_acme",
		"tenant_acme_co",
		"_private",
		"a",
	}
	for _, name := range valid {
		assert.NoError(t, ValidateSchemaName(name), "schema %q", name)
	}

	invalid := []string{
		"",
		"Tenant_Acme",            // uppercase
		"tenant-acme",            // hyphen
		"1tenant",                // leading digit
		"tenant_acme; DROP",      // injection attempt
		"tenant acme",            // space
		"tenant_" + strings.Repeat("x", 60), // over identifier limit
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateSchemaName(name), ErrInvalidSchemaName, "schema %q", name)
	}
}

func TestValidateSubdomain(t *testing.T) {
	valid := []string{"acme", "acme-co", "a1b2", "x"}
	for _, s := range valid {
		assert.NoError(t, ValidateSubdomain(s), "subdomain %q", s)
	}

	invalid := []string{
		"",
		"-acme",  // leading hyphen
		"acme-",  // trailing hyphen
		"ac me",  // space
		"acme.co", // dot
		strings.Repeat("a", 51), // too long
	}
	for _, s := range invalid {
		assert.Error(t, ValidateSubdomain(s), "subdomain %q", s)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"tenant_acme"`, quoteIdentifier("tenant_acme"))
	assert.Equal(t, `"a""b"`, quoteIdentifier(`a"b`))
}
