package tenancy

import (
	"regexp"
	"strings"
)

const (
	schemaPrefix = "tenant_"

	// PostgreSQL identifier length limit
	maxSchemaNameLength = 63
)

var (
	schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	subdomainPattern  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
)

// SchemaName derives the storage schema name from a tenant subdomain:
// lower-cased, hyphens replaced with underscores, prefixed. "acme-co"
// becomes "tenant_acme_co".
func SchemaName(subdomain string) string {
	return schemaPrefix + strings.ReplaceAll(strings.ToLower(subdomain), "-", "_")
}

// ValidateSchemaName checks that a schema name is a safe PostgreSQL
// identifier. Schema names are registry-controlled and validated at tenant
// creation, but every component that interpolates one into DDL revalidates
// it before use.
func ValidateSchemaName(name string) error {
	if name == "" || len(name) > maxSchemaNameLength {
		return ErrInvalidSchemaName
	}
	if !schemaNamePattern.MatchString(name) {
		return ErrInvalidSchemaName
	}
	return nil
}

// ValidateSubdomain checks that a subdomain is routable and derives a valid
// schema name.
func ValidateSubdomain(subdomain string) error {
	if subdomain == "" || len(subdomain) > 50 {
		return ErrInvalidSchemaName
	}
	if !subdomainPattern.MatchString(strings.ToLower(subdomain)) {
		return ErrInvalidSchemaName
	}
	return ValidateSchemaName(SchemaName(subdomain))
}

// quoteIdentifier wraps an identifier in double quotes for interpolation
// into DDL and session-configuration statements.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
