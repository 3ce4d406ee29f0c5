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

// CreateOrganizationInput is a validated organization creation body.
type CreateOrganizationInput struct {
	OrganizationName        string  `json:"organizationName"`
	AdminEmail              *string `json:"adminEmail"`
	OrganizationDisplayName *string `json:"organizationDisplayName"`
	OrganizationLogoImage   *string `json:"organiationImageLogo"`
}

// organizationColumns maps accepted update keys to columns.
var organizationColumns = map[string]string{
	"organizationName":        "organizationName",
	"adminEmail":              "adminEmail",
	"organizationDisplayName": "organizationDisplayName",
	"organiationImageLogo":    "organizationLogoImage",
}

// OrganizationService contains the business logic for organization operations.
type OrganizationService struct {
	db            *gorm.DB
	organizations *store.Store[models.Organization]
	policy        Authorizer
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(db *gorm.DB, policy Authorizer) *OrganizationService {
	return &OrganizationService{db: db, organizations: store.NewOrganizationStore(db), policy: policy}
}

// Get returns a single organization by id.
func (s *OrganizationService) Get(ctx context.Context, id int64) (*models.Organization, error) {
	return s.organizations.FindByID(ctx, id)
}

// Search returns organizations whose name contains keyword, ordered by name.
func (s *OrganizationService) Search(ctx context.Context, _ *auth.Identity, keyword string) ([]models.Organization, error) {
	return s.organizations.Search(ctx, keyword)
}

// Create validates data and inserts a new organization owned by caller.
func (s *OrganizationService) Create(ctx context.Context, caller *auth.Identity, data map[string]any) (*models.Organization, error) {
	valid, err := validation.OrganizationCreate.Validate(data)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(caller, rbac.ResourceOrganizations); err != nil {
		return nil, err
	}

	var input CreateOrganizationInput
	if err := validation.Decode(valid, &input); err != nil {
		return nil, err
	}
	if err := s.ensureNameAvailable(ctx, input.OrganizationName); err != nil {
		return nil, err
	}

	actor, err := actorID(caller)
	if err != nil {
		return nil, err
	}

	org := models.Organization{
		OrganizationName:        input.OrganizationName,
		AdminEmail:              input.AdminEmail,
		OrganizationDisplayName: input.OrganizationDisplayName,
		OrganizationLogoImage:   input.OrganizationLogoImage,
		CreatedBy:               &actor,
	}
	if err := s.organizations.Create(ctx, &org); err != nil {
		return nil, err
	}

	logAudit(ctx, s.db, caller, actor, audit.ActionCreateOrganization, organizationResource(org.ID), map[string]interface{}{
		"organizationName": org.OrganizationName,
	})
	return &org, nil
}

// Update merges data into the organization with the given id.
func (s *OrganizationService) Update(ctx context.Context, caller *auth.Identity, id int64, data map[string]any) (*models.Organization, error) {
	valid, err := validation.OrganizationUpdate.Validate(data)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(caller, rbac.ResourceOrganizations); err != nil {
		return nil, err
	}

	org, err := s.organizations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name, ok := valid["organizationName"].(string); ok && !sameName(name, org.OrganizationName) {
		if err := s.ensureNameAvailable(ctx, name); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{}
	for key, column := range organizationColumns {
		if value, ok := valid[key]; ok {
			fields[column] = value
		}
	}

	actor, err := actorID(caller)
	if err != nil {
		return nil, err
	}
	fields["updatedBy"] = actor

	if err := s.organizations.Update(ctx, org, fields); err != nil {
		return nil, err
	}

	logAudit(ctx, s.db, caller, actor, audit.ActionUpdateOrganization, organizationResource(org.ID), valid)
	return org, nil
}

// Delete removes the organization with the given id.
func (s *OrganizationService) Delete(ctx context.Context, caller *auth.Identity, id int64) error {
	if err := s.policy.Authorize(caller, rbac.ResourceOrganizations); err != nil {
		return err
	}
	actor, err := actorID(caller)
	if err != nil {
		return err
	}

	org, err := s.organizations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.organizations.Delete(ctx, org); err != nil {
		return err
	}

	logAudit(ctx, s.db, caller, actor, audit.ActionDeleteOrganization, organizationResource(org.ID), map[string]interface{}{
		"organizationName": org.OrganizationName,
	})
	return nil
}

func (s *OrganizationService) ensureNameAvailable(ctx context.Context, name string) error {
	existing, err := s.organizations.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperror.BadRequest(fmt.Sprintf("OrganizationName: %q is already exists.", existing.OrganizationName))
	}
	return nil
}

func organizationResource(id int64) string {
	return fmt.Sprintf("organization:%d", id)
}
