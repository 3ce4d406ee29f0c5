// Package service holds the business rules for roles and organizations:
// body validation, write authorization, name uniqueness and auditing.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/apperror"
	"github.com/nebari-dev/authz/internal/audit"
	"github.com/nebari-dev/authz/internal/auth"
	"github.com/nebari-dev/authz/internal/models"
)

// Authorizer decides whether a caller may modify a resource.
type Authorizer interface {
	Authorize(caller *auth.Identity, resource string) error
}

// actorID converts the caller's user id to the integer stored in
// createdBy/updatedBy columns.
func actorID(caller *auth.Identity) (int64, error) {
	if caller == nil {
		return 0, apperror.Unauthorized("")
	}
	id, err := strconv.ParseInt(caller.UserID, 10, 64)
	if err != nil {
		return 0, apperror.BadRequest(fmt.Sprintf("user id %q is not a number", caller.UserID), err)
	}
	return id, nil
}

// sameName compares names the way the unique index does.
func sameName(a, b string) bool {
	return models.NameKey(a) == models.NameKey(b)
}

func logAudit(ctx context.Context, db *gorm.DB, caller *auth.Identity, actor int64, action, resource string, details any) {
	if err := audit.LogAction(ctx, db, actor, caller.Handle, action, resource, details); err != nil {
		slog.Warn("Failed to write audit log", "action", action, "resource", resource, "error", err)
	}
}
