// Package transfer moves every role and organization between the database
// and a JSON or YAML file.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/db"
	"github.com/nebari-dev/authz/internal/models"
	"github.com/nebari-dev/authz/internal/store"
)

const batchSize = 100

// Dataset is the file layout, keyed by model name.
type Dataset struct {
	Role         []models.Role         `json:"Role" yaml:"Role"`
	Organization []models.Organization `json:"Organization" yaml:"Organization"`
}

// ImportError reports the model whose records could not be written.
type ImportError struct {
	Model string
	Err   error
}

func (e *ImportError) Error() string {
	if store.IsUniqueViolation(e.Err) {
		return fmt.Sprintf("error while writing data of model %s: unique constraint violated", e.Model)
	}
	return fmt.Sprintf("error while writing data of model %s: %v", e.Model, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Export writes all rows to path. Files ending in .yaml or .yml are YAML,
// anything else is JSON.
func Export(ctx context.Context, gdb *gorm.DB, path string) error {
	slog.Info("Start saving data to file", "component", "exportData", "path", path)

	roles, err := store.NewRoleStore(gdb).All(ctx)
	if err != nil {
		return err
	}
	slog.Info("Records loaded", "component", "exportData", "model", "Role", "count", len(roles))

	organizations, err := store.NewOrganizationStore(gdb).All(ctx)
	if err != nil {
		return err
	}
	slog.Info("Records loaded", "component", "exportData", "model", "Organization", "count", len(organizations))

	data := Dataset{Role: roles, Organization: organizations}
	content, err := marshal(path, data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	slog.Info("End saving data to file", "component", "exportData")
	return nil
}

// Import replaces all rows with the contents of path. The tables are
// recreated first and the rows are written in one transaction.
func Import(ctx context.Context, gdb *gorm.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file with path %s does not exist", path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var data Dataset
	if err := unmarshal(path, content, &data); err != nil {
		return err
	}

	slog.Info("Clearing database...", "component", "importData")
	if err := db.Reset(gdb); err != nil {
		return err
	}

	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, "Role", data.Role); err != nil {
			return err
		}
		return insert(tx, "Organization", data.Organization)
	})
	if err != nil {
		slog.Error("Import rolled back", "component", "importData", "error", err)
		return err
	}

	if err := resetSequences(gdb); err != nil {
		return err
	}
	slog.Info("Import committed", "component", "importData")
	return nil
}

func insert[T any](tx *gorm.DB, model string, records []T) error {
	if len(records) == 0 {
		slog.Info("No records to import", "component", "importData", "model", model)
		return nil
	}

	slog.Info("Importing data", "component", "importData", "model", model)
	if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
		slog.Error("Error while writing data", "component", "importData", "model", model)
		return &ImportError{Model: model, Err: err}
	}
	slog.Info("Records imported", "component", "importData", "model", model, "count", len(records))
	return nil
}

// resetSequences moves PostgreSQL id sequences past the imported ids.
// SQLite and MySQL track this themselves.
func resetSequences(gdb *gorm.DB) error {
	if gdb.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"role", "organization"} {
		stmt := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]q), 0) + 1, false)`,
			table,
		)
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("reset %s id sequence: %w", table, err)
		}
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func marshal(path string, data Dataset) ([]byte, error) {
	if isYAML(path) {
		content, err := yaml.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return content, nil
	}
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return content, nil
}

func unmarshal(path string, content []byte, data *Dataset) error {
	if isYAML(path) {
		if err := yaml.Unmarshal(content, data); err != nil {
			return fmt.Errorf("decode yaml %s: %w", path, err)
		}
		return nil
	}
	if err := json.Unmarshal(content, data); err != nil {
		return fmt.Errorf("decode json %s: %w", path, err)
	}
	return nil
}
