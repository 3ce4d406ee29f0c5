package models

import (
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// NameKey is the comparison form of an entity name. Names whose keys are
// equal are the same name; the unique indexes are built on this value.
func NameKey(name string) string {
	return cases.Fold().String(name)
}

// BeforeCreate fills the name key. Updates set it through the store.
func (r *Role) BeforeCreate(tx *gorm.DB) error {
	r.NameKey = NameKey(r.Name)
	return nil
}

// BeforeCreate fills the name key. Updates set it through the store.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	o.NameKey = NameKey(o.OrganizationName)
	return nil
}
