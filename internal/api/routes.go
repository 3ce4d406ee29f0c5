package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nebari-dev/authz/internal/api/handlers"
	"github.com/nebari-dev/authz/internal/validation"
)

// Route maps a path and verb to a guarded handler.
type Route struct {
	Method     string
	Path       string
	Controller string
	Action     string
	Auth       bool
	Scopes     []string // machine callers need any one of these
	Params     validation.Schema
	Query      validation.Schema
	Handler    gin.HandlerFunc
}

// Machine scopes.
const (
	ScopeCreateRoles = "create:roles"
	ScopeReadRoles   = "read:roles"
	ScopeUpdateRoles = "update:roles"
	ScopeDeleteRoles = "delete:roles"
	ScopeAllRoles    = "all:roles"

	ScopeCreateOrganizations = "create:organizations"
	ScopeReadOrganizations   = "read:organizations"
	ScopeUpdateOrganizations = "update:organizations"
	ScopeDeleteOrganizations = "delete:organizations"
	ScopeAllOrganizations    = "all:organizations"
)

// Routes returns the API route table. Paths are relative to the base path.
func Routes(roles *handlers.RoleHandler, orgs *handlers.OrganizationHandler, health *handlers.HealthHandler) []Route {
	return []Route{
		{
			Method:     http.MethodGet,
			Path:       "/health",
			Controller: "HealthController",
			Action:     "checkHealth",
			Handler:    health.HealthCheck,
		},

		// Roles
		{
			Method:     http.MethodPost,
			Path:       "/roles",
			Controller: "RoleController",
			Action:     "createRole",
			Auth:       true,
			Scopes:     []string{ScopeCreateRoles, ScopeAllRoles},
			Handler:    roles.CreateRole,
		},
		{
			Method:     http.MethodGet,
			Path:       "/roles",
			Controller: "RoleController",
			Action:     "searchRoles",
			Auth:       true,
			Scopes:     []string{ScopeReadRoles, ScopeAllRoles},
			Query:      validation.SearchQuery,
			Handler:    roles.SearchRoles,
		},
		{
			Method:     http.MethodGet,
			Path:       "/roles/:id",
			Controller: "RoleController",
			Action:     "getRole",
			Auth:       true,
			Scopes:     []string{ScopeReadRoles, ScopeAllRoles},
			Params:     validation.Lookup,
			Query:      validation.LookupQuery,
			Handler:    roles.GetRole,
		},
		{
			Method:     http.MethodPatch,
			Path:       "/roles/:id",
			Controller: "RoleController",
			Action:     "updateRole",
			Auth:       true,
			Scopes:     []string{ScopeUpdateRoles, ScopeAllRoles},
			Params:     validation.Lookup,
			Handler:    roles.UpdateRole,
		},
		{
			Method:     http.MethodDelete,
			Path:       "/roles/:id",
			Controller: "RoleController",
			Action:     "deleteRole",
			Auth:       true,
			Scopes:     []string{ScopeDeleteRoles, ScopeAllRoles},
			Params:     validation.Lookup,
			Handler:    roles.DeleteRole,
		},

		// Organizations
		{
			Method:     http.MethodPost,
			Path:       "/organizations",
			Controller: "OrganizationController",
			Action:     "createOrganization",
			Auth:       true,
			Scopes:     []string{ScopeCreateOrganizations, ScopeAllOrganizations},
			Handler:    orgs.CreateOrganization,
		},
		{
			Method:     http.MethodGet,
			Path:       "/organizations",
			Controller: "OrganizationController",
			Action:     "searchOrganizations",
			Auth:       true,
			Scopes:     []string{ScopeReadOrganizations, ScopeAllOrganizations},
			Query:      validation.SearchQuery,
			Handler:    orgs.SearchOrganizations,
		},
		{
			Method:     http.MethodGet,
			Path:       "/organizations/:id",
			Controller: "OrganizationController",
			Action:     "getOrganization",
			Auth:       true,
			Scopes:     []string{ScopeReadOrganizations, ScopeAllOrganizations},
			Params:     validation.Lookup,
			Query:      validation.LookupQuery,
			Handler:    orgs.GetOrganization,
		},
		{
			Method:     http.MethodPatch,
			Path:       "/organizations/:id",
			Controller: "OrganizationController",
			Action:     "updateOrganization",
			Auth:       true,
			Scopes:     []string{ScopeUpdateOrganizations, ScopeAllOrganizations},
			Params:     validation.Lookup,
			Handler:    orgs.UpdateOrganization,
		},
		{
			Method:     http.MethodDelete,
			Path:       "/organizations/:id",
			Controller: "OrganizationController",
			Action:     "deleteOrganization",
			Auth:       true,
			Scopes:     []string{ScopeDeleteOrganizations, ScopeAllOrganizations},
			Params:     validation.Lookup,
			Handler:    orgs.DeleteOrganization,
		},
	}
}
