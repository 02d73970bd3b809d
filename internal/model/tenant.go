package model

import (
	"time"
)

// Tenant is the registry row for one isolated customer account. It lives in
// the shared/public schema; everything else lives inside the tenant's own
// schema. Subdomain and SchemaName are immutable after creation; renaming
// either would orphan the physical schema.
type Tenant struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Subdomain    string    `json:"subdomain" gorm:"type:varchar(50);uniqueIndex;not null"`
	SchemaName   string    `json:"schema_name" gorm:"type:varchar(63);uniqueIndex;not null"`
	Active       bool      `json:"is_active" gorm:"default:true;not null"`
	ContactEmail string    `json:"contact_email" gorm:"type:varchar(120)"`
	MaxUsers     int       `json:"max_users" gorm:"default:10"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName keeps the registry table in the shared schema regardless of the
// session's search_path.
func (Tenant) TableName() string {
	return "public.tenants"
}
