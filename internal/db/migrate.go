package db

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nebari-dev/authz/internal/models"
)

// nameIndex is a unique index over a folded name key column. It backs the
// service-level uniqueness pre-check so a lost race surfaces as a
// constraint violation.
type nameIndex struct {
	model     any
	table     string
	column    string // display name
	keyColumn string
	name      string
	legacy    string // earlier LOWER(column) index, dropped on migrate
}

var nameIndexes = []nameIndex{
	{model: &models.Role{}, table: "role", column: "name", keyColumn: "nameKey", name: "role_name_key_unique", legacy: "role_name_lower_unique"},
	{model: &models.Organization{}, table: "organization", column: "organizationName", keyColumn: "organizationNameKey", name: "organization_name_key_unique", legacy: "organization_name_lower_unique"},
}

// DataModels are the entity tables covered by bulk import and export, in load order.
func DataModels() []any {
	return []any{&models.Role{}, &models.Organization{}}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	slog.Info("Running database migrations...")

	// Auto-migrate all models
	err := db.AutoMigrate(
		&models.Role{},
		&models.Organization{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := ensureNameIndexes(db); err != nil {
		return fmt.Errorf("failed to create name indexes: %w", err)
	}

	return nil
}

// Reset drops and recreates the entity tables, discarding all rows.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(DataModels()...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	if err := db.AutoMigrate(DataModels()...); err != nil {
		return fmt.Errorf("failed to recreate tables: %w", err)
	}
	return ensureNameIndexes(db)
}

func ensureNameIndexes(db *gorm.DB) error {
	for _, idx := range nameIndexes {
		if db.Migrator().HasIndex(idx.model, idx.legacy) {
			if err := db.Migrator().DropIndex(idx.model, idx.legacy); err != nil {
				return fmt.Errorf("drop index %s: %w", idx.legacy, err)
			}
		}
		if err := backfillNameKeys(db, idx); err != nil {
			return err
		}
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		err := db.Exec("CREATE UNIQUE INDEX ? ON ? (?)",
			clause.Column{Name: idx.name},
			clause.Table{Name: idx.table},
			clause.Column{Name: idx.keyColumn},
		).Error
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
		slog.Info("Created case-insensitive unique index", "table", idx.table, "index", idx.name)
	}
	return nil
}

// nameRow is a (id, name) pair read while backfilling keys.
type nameRow struct {
	ID   int64
	Name string
}

// backfillNameKeys computes the key for rows written before the key column
// existed.
func backfillNameKeys(db *gorm.DB, idx nameIndex) error {
	var rows []nameRow
	err := db.Table(idx.table).
		Select("id, ? AS name", clause.Column{Name: idx.column}).
		Where("? = '' AND ? <> ''", clause.Column{Name: idx.keyColumn}, clause.Column{Name: idx.column}).
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("read %s names: %w", idx.table, err)
	}

	for _, row := range rows {
		err := db.Table(idx.table).
			Where("id = ?", row.ID).
			Update(idx.keyColumn, models.NameKey(row.Name)).Error
		if err != nil {
			return fmt.Errorf("backfill %s %d: %w", idx.table, row.ID, err)
		}
	}
	if len(rows) > 0 {
		slog.Info("Backfilled name keys", "table", idx.table, "rows", len(rows))
	}
	return nil
}
