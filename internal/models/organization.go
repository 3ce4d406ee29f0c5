package models

import "time"

// Organization is a customer organization. OrganizationName is unique regardless of case.
type Organization struct {
	ID                      int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" yaml:"id"`
	OrganizationName        string    `gorm:"column:organizationName;size:45;not null" json:"organizationName" yaml:"organizationName"`
	NameKey                 string    `gorm:"column:organizationNameKey;size:255;not null;default:''" json:"-" yaml:"-"`
	AdminEmail              *string   `gorm:"column:adminEmail;size:45" json:"adminEmail" yaml:"adminEmail"`
	OrganizationDisplayName *string   `gorm:"column:organizationDisplayName;size:45" json:"organizationDisplayName" yaml:"organizationDisplayName"`
	OrganizationLogoImage   *string   `gorm:"column:organizationLogoImage;size:45" json:"organizationLogoImage" yaml:"organizationLogoImage"`
	CreatedBy               *int64    `gorm:"column:createdBy" json:"createdBy" yaml:"createdBy"`
	UpdatedBy               *int64    `gorm:"column:updatedBy" json:"updatedBy" yaml:"updatedBy"`
	CreatedAt               time.Time `gorm:"column:createdAt" json:"createdAt" yaml:"createdAt"`
	UpdatedAt               time.Time `gorm:"column:updatedAt" json:"updatedAt" yaml:"updatedAt"`
}

// TableName ensures GORM uses the "organization" table
func (Organization) TableName() string {
	return "organization"
}
