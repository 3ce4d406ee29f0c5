package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/models"
)

func TestLogAction(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	details := map[string]any{"name": "Reviewer"}
	if err := LogAction(context.Background(), db, 40029484, "jcori", ActionCreateRole, "role:7", details); err != nil {
		t.Fatalf("LogAction: %v", err)
	}

	var entry models.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if entry.UserID != 40029484 || entry.Handle != "jcori" || entry.Action != ActionCreateRole {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Resource != "role:7" || entry.DetailsJSON != `{"name":"Reviewer"}` {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}
