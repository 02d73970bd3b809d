package model

import (
	"time"
)

// Project is a Kanban board inside one tenant's schema
type Project struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:text"`
	OwnerID     uint      `json:"owner_id" gorm:"index;not null"`
	IsArchived  bool      `json:"is_archived" gorm:"default:false;not null"`
	Color       string    `json:"color" gorm:"type:varchar(7);default:'#4A90E2'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectMember is the membership row linking users to projects. Membership
// is handled explicitly rather than through an ORM association so that
// permission checks stay visible in the query path.
type ProjectMember struct {
	ProjectID uint      `json:"project_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}
