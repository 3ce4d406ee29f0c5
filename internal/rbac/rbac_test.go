package rbac

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/apperror"
	"github.com/nebari-dev/authz/internal/auth"
)

func setupEnforcer(t *testing.T) (*Enforcer, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rbac.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	e, err := NewEnforcer(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	return e, db
}

func TestAuthorize(t *testing.T) {
	e, _ := setupEnforcer(t)

	tests := []struct {
		name    string
		caller  *auth.Identity
		allowed bool
	}{
		{"admin", &auth.Identity{UserID: "1", IsAdmin: true}, true},
		{"machine", &auth.Identity{UserID: "svc@clients", IsMachine: true}, true},
		{"plain user", &auth.Identity{UserID: "2", Roles: []string{"Topcoder User"}}, false},
		{"no caller", nil, false},
	}

	for _, tt := range tests {
		for _, resource := range []string{ResourceRoles, ResourceOrganizations} {
			t.Run(tt.name+"/"+resource, func(t *testing.T) {
				err := e.Authorize(tt.caller, resource)
				if tt.allowed && err != nil {
					t.Errorf("expected access, got %v", err)
				}
				if !tt.allowed {
					appErr, ok := apperror.As(err)
					if !ok || appErr.Kind != apperror.KindForbidden {
						t.Fatalf("expected Forbidden, got %v", err)
					}
					if appErr.Message != ForbiddenMessage {
						t.Errorf("unexpected message %q", appErr.Message)
					}
				}
			})
		}
	}
}

func TestNewEnforcer_SeedIsIdempotent(t *testing.T) {
	_, db := setupEnforcer(t)

	// A second start against the same database must not duplicate rules
	e, err := NewEnforcer(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	policies, err := e.enforcer.GetPolicy()
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if len(policies) != len(defaultPolicies) {
		t.Errorf("expected %d policies, got %d", len(defaultPolicies), len(policies))
	}
}
