package model

import (
	"time"
)

// List is a Kanban column within a project
type List struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	ProjectID uint      `json:"project_id" gorm:"index;not null"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:ListID"`
}

func (List) TableName() string {
	return "lists"
}
