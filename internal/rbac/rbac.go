package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/apperror"
	"github.com/nebari-dev/authz/internal/auth"
)

//go:embed model.conf
var modelConf string

// Policy subjects
const (
	SubjectAdmin   = "admin"
	SubjectMachine = "machine"
	SubjectUser    = "user"
)

// Policy objects
const (
	ResourceRoles         = "roles"
	ResourceOrganizations = "organizations"
)

// ActionWrite covers create, update and delete
const ActionWrite = "write"

// ForbiddenMessage is returned to callers that fail the write policy
const ForbiddenMessage = "You are not allowed to perform this action!"

// defaultPolicies are seeded on every start; existing rows are left alone.
var defaultPolicies = [][]string{
	{SubjectAdmin, ResourceRoles, ActionWrite},
	{SubjectAdmin, ResourceOrganizations, ActionWrite},
	{SubjectMachine, ResourceRoles, ActionWrite},
	{SubjectMachine, ResourceOrganizations, ActionWrite},
}

// Enforcer decides whether a caller may modify a resource.
type Enforcer struct {
	enforcer *casbin.Enforcer
}

// NewEnforcer initializes the Casbin enforcer with policies stored in db
func NewEnforcer(db *gorm.DB, logger *slog.Logger) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	// Load model from embedded string
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	for _, p := range defaultPolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("failed to seed policy %v: %w", p, err)
		}
	}

	logger.Info("RBAC enforcer initialized")
	return &Enforcer{enforcer: e}, nil
}

// Subject maps a caller to its policy subject.
func Subject(caller *auth.Identity) string {
	switch {
	case caller == nil:
		return ""
	case caller.IsMachine:
		return SubjectMachine
	case caller.IsAdmin:
		return SubjectAdmin
	default:
		return SubjectUser
	}
}

// Authorize returns a Forbidden error unless caller may write resource.
func (e *Enforcer) Authorize(caller *auth.Identity, resource string) error {
	ok, err := e.enforcer.Enforce(Subject(caller), resource, ActionWrite)
	if err != nil {
		return apperror.Internal("", fmt.Errorf("enforce policy: %w", err))
	}
	if !ok {
		return apperror.Forbidden(ForbiddenMessage)
	}
	return nil
}
