package models

import "time"

// AuditLog represents a record of a mutating action for compliance
type AuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      int64     `gorm:"index" json:"userId"`
	Handle      string    `json:"handle"`
	Action      string    `gorm:"not null" json:"action"`       // e.g., "create_role", "delete_organization"
	Resource    string    `gorm:"not null" json:"resource"`     // e.g., "role:12", "organization:4"
	DetailsJSON string    `gorm:"type:text" json:"detailsJson"` // Additional context in JSON
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
