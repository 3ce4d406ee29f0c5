package audit

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/models"
)

// LogAction records an audit log entry
func LogAction(ctx context.Context, db *gorm.DB, userID int64, handle, action, resource string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	log := models.AuditLog{
		UserID:      userID,
		Handle:      handle,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now().UTC(),
	}

	return db.WithContext(ctx).Create(&log).Error
}

// Audit actions constants
const (
	ActionCreateRole         = "create_role"
	ActionUpdateRole         = "update_role"
	ActionDeleteRole         = "delete_role"
	ActionCreateOrganization = "create_organization"
	ActionUpdateOrganization = "update_organization"
	ActionDeleteOrganization = "delete_organization"
	ActionImportData         = "import_data"
)
