package model

import (
	"time"
)

// Task priority levels
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task is a card within a list
type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"type:varchar(200);not null"`
	Description string     `json:"description" gorm:"type:text"`
	ListID      uint       `json:"list_id" gorm:"index;not null"`
	AssigneeID  *uint      `json:"assignee_id,omitempty" gorm:"index"`
	Position    int        `json:"position" gorm:"not null;default:0"`
	Priority    string     `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	Labels      []string   `json:"labels" gorm:"serializer:json;type:jsonb"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed" gorm:"default:false;not null"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Assignee *User     `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:TaskID"`
}

func (Task) TableName() string {
	return "tasks"
}

// Comment is a user comment attached to a task
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	TaskID    uint      `json:"task_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Comment) TableName() string {
	return "comments"
}
