package tenancy

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskboard-service/internal/model"
)

// Registry is the authoritative directory mapping subdomains to tenant
// schemas. It lives in the shared/public schema and is safe for concurrent
// lookups.
type Registry struct {
	db *gorm.DB
}

// NewRegistry creates a registry over the shared database handle
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// LookupActive resolves a subdomain to its tenant for request routing.
// Inactive tenants are invisible here; use Get for admin access.
func (r *Registry) LookupActive(subdomain string) (*model.Tenant, error) {
	var tenant model.Tenant
	result := r.db.Where("subdomain = ? AND active = ?", subdomain, true).First(&tenant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, subdomain)
		}
		return nil, result.Error
	}
	return &tenant, nil
}

// Get retrieves a tenant by id regardless of activation state
func (r *Registry) Get(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	result := r.db.First(&tenant, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, result.Error
	}
	return &tenant, nil
}

// Create inserts a tenant registry row. Duplicate subdomains, names and
// schema names surface as ErrSubdomainTaken.
func (r *Registry) Create(tenant *model.Tenant) error {
	if err := ValidateSubdomain(tenant.Subdomain); err != nil {
		return err
	}
	if err := ValidateSchemaName(tenant.SchemaName); err != nil {
		return err
	}
	if result := r.db.Create(tenant); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: %s", ErrSubdomainTaken, tenant.Subdomain)
		}
		return result.Error
	}
	return nil
}

// TenantUpdate carries the mutable tenant fields. Subdomain and schema name
// are immutable after creation.
type TenantUpdate struct {
	Name         *string
	Active       *bool
	ContactEmail *string
	MaxUsers     *int
}

// Update applies the provided fields to a tenant
func (r *Registry) Update(id uint, upd TenantUpdate) (*model.Tenant, error) {
	tenant, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Active != nil {
		fields["active"] = *upd.Active
	}
	if upd.ContactEmail != nil {
		fields["contact_email"] = *upd.ContactEmail
	}
	if upd.MaxUsers != nil {
		fields["max_users"] = *upd.MaxUsers
	}

	if len(fields) > 0 {
		if result := r.db.Model(tenant).Updates(fields); result.Error != nil {
			if isUniqueViolation(result.Error) {
				return nil, ErrSubdomainTaken
			}
			return nil, result.Error
		}
	}
	return tenant, nil
}

// Delete removes a tenant registry row. Physical schema teardown is the
// provisioner's job and must happen before this is called.
func (r *Registry) Delete(id uint) error {
	result := r.db.Delete(&model.Tenant{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// List returns all tenants, active or not
func (r *Registry) List() ([]model.Tenant, error) {
	var tenants []model.Tenant
	if result := r.db.Order("id").Find(&tenants); result.Error != nil {
		return nil, result.Error
	}
	return tenants, nil
}

// Count returns the number of active tenants, for the metrics gauge
func (r *Registry) Count() (int64, error) {
	var n int64
	if result := r.db.Model(&model.Tenant{}).Where("active = ?", true).Count(&n); result.Error != nil {
		return 0, result.Error
	}
	return n, nil
}
