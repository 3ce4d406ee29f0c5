package models

import "time"

// Role is a named capability that can be granted to members of the platform.
// Names are unique regardless of case.
type Role struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" yaml:"id"`
	Name        string    `gorm:"column:name;size:45;not null" json:"name" yaml:"name"`
	NameKey     string    `gorm:"column:nameKey;size:255;not null;default:''" json:"-" yaml:"-"`
	Description *string   `gorm:"column:description;size:500" json:"description" yaml:"description"`
	CreatedBy   int64     `gorm:"column:createdBy;not null" json:"createdBy" yaml:"createdBy"`
	UpdatedBy   *int64    `gorm:"column:modifiedBy" json:"updatedBy" yaml:"updatedBy"`
	CreatedAt   time.Time `gorm:"column:createdAt" json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:modifiedAt" json:"updatedAt" yaml:"updatedAt"`
}

// TableName keeps the table name used by existing deployments.
func (Role) TableName() string {
	return "role"
}
