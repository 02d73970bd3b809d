package tenancy

import (
	"fmt"

	"gorm.io/gorm"
)

// Session binds a single request to a single tenant schema. It wraps a
// database transaction: the transaction pins exactly one pooled connection
// for the request's lifetime, and SET LOCAL reverts when the transaction
// ends, so a connection can never return to the pool still bound to a
// tenant schema, on any exit path.
type Session struct {
	tx       *gorm.DB
	schema   string
	released bool
}

// OpenSession begins a transaction and binds its search path to the tenant
// schema first, public second, so shared lookup tables stay visible without
// qualification. The schema name is revalidated before interpolation.
func OpenSession(db *gorm.DB, schemaName string) (*Session, error) {
	if err := ValidateSchemaName(schemaName); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin tenant session: %w", tx.Error)
	}

	// SET search_path accepts schemas that do not exist; unqualified names
	// would then resolve in public. A registered tenant whose schema is gone
	// must fail activation, not run against the default namespace.
	var exists bool
	if err := tx.Raw("SELECT EXISTS (SELECT 1 FROM pg_namespace WHERE nspname = ?)", schemaName).Scan(&exists).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to check schema %s: %w", schemaName, err)
	}
	if !exists {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %s", ErrSchemaMissing, schemaName)
	}

	stmt := fmt.Sprintf("SET LOCAL search_path TO %s, public", quoteIdentifier(schemaName))
	if err := tx.Exec(stmt).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to set schema %s: %w", schemaName, err)
	}

	return &Session{tx: tx, schema: schemaName}, nil
}

// DB returns the schema-bound database handle for this session. All
// tenant-scoped queries in the request must go through it.
func (s *Session) DB() *gorm.DB {
	return s.tx
}

// Schema returns the bound schema name
func (s *Session) Schema() string {
	return s.schema
}

// Release ends the session: commit when the request succeeded, rollback
// otherwise. Safe to call more than once; only the first call takes effect.
func (s *Session) Release(handlerErr error) error {
	if s.released {
		return nil
	}
	s.released = true

	if handlerErr != nil {
		return s.tx.Rollback().Error
	}
	return s.tx.Commit().Error
}
