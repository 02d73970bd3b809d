package tenancy

import (
	"fmt"

	"gorm.io/gorm"

	"taskboard-service/internal/model"
)

// TenantTables is the table set replicated inside every tenant schema
var TenantTables = []interface{}{
	&model.User{},
	&model.Project{},
	&model.ProjectMember{},
	&model.List{},
	&model.Task{},
	&model.Comment{},
}

// Provisioner creates and destroys the physical schemas behind tenants
type Provisioner struct {
	db *gorm.DB
}

// NewProvisioner creates a provisioner over the shared database handle
func NewProvisioner(db *gorm.DB) *Provisioner {
	return &Provisioner{db: db}
}

// Provision creates the tenant schema and its table set. DDL runs inside a
// single transaction (PostgreSQL DDL is transactional), and CREATE SCHEMA
// IF NOT EXISTS makes a retry after a failed create safe.
func (p *Provisioner) Provision(schemaName string) error {
	if err := ValidateSchemaName(schemaName); err != nil {
		return err
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE SCHEMA IF NOT EXISTS " + quoteIdentifier(schemaName)).Error; err != nil {
			return err
		}
		if err := tx.Exec(fmt.Sprintf("SET LOCAL search_path TO %s, public", quoteIdentifier(schemaName))).Error; err != nil {
			return err
		}
		return tx.AutoMigrate(TenantTables...)
	})
	if err != nil {
		return fmt.Errorf("failed to create tenant schema %s: %w", schemaName, err)
	}
	return nil
}

// Deprovision irreversibly destroys the tenant schema and everything inside
// it. There is no soft delete for physical storage.
func (p *Provisioner) Deprovision(schemaName string) error {
	if err := ValidateSchemaName(schemaName); err != nil {
		return err
	}
	if err := p.db.Exec("DROP SCHEMA IF EXISTS " + quoteIdentifier(schemaName) + " CASCADE").Error; err != nil {
		return fmt.Errorf("failed to delete tenant schema %s: %w", schemaName, err)
	}
	return nil
}

// TenantStats holds per-tenant usage counts
type TenantStats struct {
	Users       int64 `json:"users"`
	Projects    int64 `json:"projects"`
	Tasks       int64 `json:"tasks"`
	ActiveTasks int64 `json:"active_tasks"`
}

// Stats counts the entities inside a tenant schema
func (p *Provisioner) Stats(schemaName string) (*TenantStats, error) {
	if err := ValidateSchemaName(schemaName); err != nil {
		return nil, err
	}

	stats := &TenantStats{}
	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL search_path TO %s, public", quoteIdentifier(schemaName))).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Count(&stats.Users).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Project{}).Count(&stats.Projects).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Task{}).Count(&stats.Tasks).Error; err != nil {
			return err
		}
		return tx.Model(&model.Task{}).Where("completed = ?", false).Count(&stats.ActiveTasks).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats for %s: %w", schemaName, err)
	}
	return stats, nil
}
