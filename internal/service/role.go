package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/apperror"
	"github.com/nebari-dev/authz/internal/audit"
	"github.com/nebari-dev/authz/internal/auth"
	"github.com/nebari-dev/authz/internal/models"
	"github.com/nebari-dev/authz/internal/rbac"
	"github.com/nebari-dev/authz/internal/store"
	"github.com/nebari-dev/authz/internal/validation"
)

// CreateRoleInput is a validated role creation body. Skills, member count and
// image are accepted for compatibility but not stored.
type CreateRoleInput struct {
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	ListOfSkills    []string `json:"listOfSkills"`
	NumberOfMembers *int     `json:"numberOfMembers"`
	ImageURL        *string  `json:"imageUrl"`
}

// RoleService contains the business logic for role operations.
type RoleService struct {
	db     *gorm.DB
	roles  *store.Store[models.Role]
	policy Authorizer
}

// NewRoleService creates a new RoleService.
func NewRoleService(db *gorm.DB, policy Authorizer) *RoleService {
	return &RoleService{db: db, roles: store.NewRoleStore(db), policy: policy}
}

// Get returns a single role by id.
func (s *RoleService) Get(ctx context.Context, id int64) (*models.Role, error) {
	return s.roles.FindByID(ctx, id)
}

// Search returns roles whose name contains keyword, ordered by name.
func (s *RoleService) Search(ctx context.Context, _ *auth.Identity, keyword string) ([]models.Role, error) {
	return s.roles.Search(ctx, keyword)
}

// Create validates data and inserts a new role owned by caller.
func (s *RoleService) Create(ctx context.Context, caller *auth.Identity, data map[string]any) (*models.Role, error) {
	valid, err := validation.RoleCreate.Validate(data)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(caller, rbac.ResourceRoles); err != nil {
		return nil, err
	}

	var input CreateRoleInput
	if err := validation.Decode(valid, &input); err != nil {
		return nil, err
	}
	if err := s.ensureNameAvailable(ctx, input.Name); err != nil {
		return nil, err
	}

	actor, err := actorID(caller)
	if err != nil {
		return nil, err
	}

	role := models.Role{
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   actor,
	}
	if err := s.roles.Create(ctx, &role); err != nil {
		return nil, err
	}

	logAudit(ctx, s.db, caller, actor, audit.ActionCreateRole, roleResource(role.ID), map[string]interface{}{
		"name": role.Name,
	})
	return &role, nil
}

// Update merges data into the role with the given id.
func (s *RoleService) Update(ctx context.Context, caller *auth.Identity, id int64, data map[string]any) (*models.Role, error) {
	valid, err := validation.RoleUpdate.Validate(data)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(caller, rbac.ResourceRoles); err != nil {
		return nil, err
	}

	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if name, ok := valid["name"].(string); ok {
		if !sameName(name, role.Name) {
			if err := s.ensureNameAvailable(ctx, name); err != nil {
				return nil, err
			}
		}
		fields["name"] = name
	}
	if description, ok := valid["description"]; ok {
		fields["description"] = description
	}

	actor, err := actorID(caller)
	if err != nil {
		return nil, err
	}
	fields["modifiedBy"] = actor

	if err := s.roles.Update(ctx, role, fields); err != nil {
		return nil, err
	}

	logAudit(ctx, s.db, caller, actor, audit.ActionUpdateRole, roleResource(role.ID), valid)
	return role, nil
}

// Delete removes the role with the given id.
func (s *RoleService) Delete(ctx context.Context, caller *auth.Identity, id int64) error {
	if err := s.policy.Authorize(caller, rbac.ResourceRoles); err != nil {
		return err
	}
	actor, err := actorID(caller)
	if err != nil {
		return err
	}

	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, role); err != nil {
		return err
	}

	logAudit(ctx, s.db, caller, actor, audit.ActionDeleteRole, roleResource(role.ID), map[string]interface{}{
		"name": role.Name,
	})
	return nil
}

func (s *RoleService) ensureNameAvailable(ctx context.Context, name string) error {
	existing, err := s.roles.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperror.BadRequest(fmt.Sprintf("Role: %q is already exists.", existing.Name))
	}
	return nil
}

func roleResource(id int64) string {
	return fmt.Sprintf("role:%d", id)
}
