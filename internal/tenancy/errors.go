package tenancy

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrTenantNotFound is returned when no active tenant matches a subdomain
	// or no tenant matches an id.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrSubdomainTaken is returned when a tenant's subdomain, name or schema
	// name collides with an existing registration.
	ErrSubdomainTaken = errors.New("subdomain already taken")

	// ErrInvalidSchemaName is returned when a schema name is not a safe
	// PostgreSQL identifier.
	ErrInvalidSchemaName = errors.New("invalid schema name")

	// ErrSchemaMissing is returned when a registered tenant's physical schema
	// does not exist, e.g. after an out-of-band drop or a provisioning failure.
	ErrSchemaMissing = errors.New("tenant schema does not exist")
)

// isUniqueViolation reports whether err is a database uniqueness conflict.
// The unique constraint is the authoritative conflict check; a prior SELECT
// would be racy under concurrent creates.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
