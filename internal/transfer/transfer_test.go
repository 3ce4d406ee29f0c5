package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nebari-dev/authz/internal/db"
	"github.com/nebari-dev/authz/internal/models"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	roles := []models.Role{
		{Name: "Copilot", Description: strPtr("Runs projects"), CreatedBy: 1},
		{Name: "Reviewer", CreatedBy: 2},
	}
	orgs := []models.Organization{
		{OrganizationName: "Topcoder", AdminEmail: strPtr("admin@topcoder.com")},
	}
	if err := gdb.Create(&roles).Error; err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	if err := gdb.Create(&orgs).Error; err != nil {
		t.Fatalf("seed organizations: %v", err)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	for _, file := range []string{"data.json", "data.yaml"} {
		t.Run(file, func(t *testing.T) {
			ctx := context.Background()
			source := setupTestDB(t, "source.db")
			seed(t, source)

			path := filepath.Join(t.TempDir(), "out", file)
			if err := Export(ctx, source, path); err != nil {
				t.Fatalf("Export: %v", err)
			}

			target := setupTestDB(t, "target.db")
			if err := Import(ctx, target, path); err != nil {
				t.Fatalf("Import: %v", err)
			}

			var roles []models.Role
			target.Order("id").Find(&roles)
			if len(roles) != 2 {
				t.Fatalf("expected 2 roles, got %d", len(roles))
			}
			if roles[0].Name != "Copilot" || roles[0].Description == nil || *roles[0].Description != "Runs projects" {
				t.Errorf("unexpected first role: %+v", roles[0])
			}
			if roles[1].Name != "Reviewer" || roles[1].CreatedBy != 2 || roles[1].Description != nil {
				t.Errorf("unexpected second role: %+v", roles[1])
			}

			var orgs []models.Organization
			target.Find(&orgs)
			if len(orgs) != 1 || orgs[0].OrganizationName != "Topcoder" {
				t.Errorf("unexpected organizations: %+v", orgs)
			}
		})
	}
}

func TestImport_ReplacesExistingRows(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t, "test.db")
	seed(t, gdb)

	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"Role":[{"id":7,"name":"Solo","createdBy":3}]}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := Import(ctx, gdb, path); err != nil {
		t.Fatalf("Import: %v", err)
	}

	var roles []models.Role
	gdb.Find(&roles)
	if len(roles) != 1 || roles[0].ID != 7 || roles[0].Name != "Solo" {
		t.Errorf("unexpected roles after import: %+v", roles)
	}

	var orgCount int64
	gdb.Model(&models.Organization{}).Count(&orgCount)
	if orgCount != 0 {
		t.Errorf("expected organizations cleared, got %d", orgCount)
	}
}

func TestImport_RollsBackOnConstraintViolation(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t, "test.db")

	path := filepath.Join(t.TempDir(), "data.json")
	fixture := `{"Role":[{"name":"Dup","createdBy":1}],"Organization":[{"organizationName":"Acme"},{"organizationName":"ACME"}]}`
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	err := Import(ctx, gdb, path)
	var importErr *ImportError
	if !errors.As(err, &importErr) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if importErr.Model != "Organization" {
		t.Errorf("expected failing model Organization, got %s", importErr.Model)
	}
	if importErr.Error() != "error while writing data of model Organization: unique constraint violated" {
		t.Errorf("unexpected message %q", importErr.Error())
	}

	var roleCount int64
	gdb.Model(&models.Role{}).Count(&roleCount)
	if roleCount != 0 {
		t.Errorf("expected role insert rolled back, got %d rows", roleCount)
	}
}

func TestImport_MissingFile(t *testing.T) {
	err := Import(context.Background(), setupTestDB(t, "test.db"), filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExport_OrdersByIDWithoutNameKey(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t, "test.db")
	seed(t, gdb)

	path := filepath.Join(t.TempDir(), "data.json")
	if err := Export(ctx, gdb, path); err != nil {
		t.Fatalf("Export: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if strings.Contains(string(content), "nameKey") || strings.Contains(string(content), "NameKey") {
		t.Errorf("export should not contain name keys: %s", content)
	}

	var data Dataset
	if err := json.Unmarshal(content, &data); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(data.Role) != 2 || data.Role[0].Name != "Copilot" || data.Role[1].Name != "Reviewer" {
		t.Errorf("unexpected exported roles: %+v", data.Role)
	}

	target := setupTestDB(t, "target.db")
	if err := Import(ctx, target, path); err != nil {
		t.Fatalf("Import: %v", err)
	}
	var role models.Role
	target.Where("id = ?", data.Role[1].ID).First(&role)
	if role.NameKey != models.NameKey("Reviewer") {
		t.Errorf("expected name key recomputed on import, got %q", role.NameKey)
	}
}
