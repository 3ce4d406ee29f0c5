package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nebari-dev/authz/internal/service"
)

// RoleHandler serves the /roles endpoints.
type RoleHandler struct {
	svc *service.RoleService
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// CreateRoleRequest documents the accepted role creation body.
type CreateRoleRequest struct {
	Name            string   `json:"name" example:"Copilot"`
	Description     string   `json:"description,omitempty"`
	ListOfSkills    []string `json:"listOfSkills,omitempty"`
	NumberOfMembers int      `json:"numberOfMembers,omitempty" minimum:"1"`
	ImageURL        string   `json:"imageUrl,omitempty"`
}

// UpdateRoleRequest documents the accepted role update body.
type UpdateRoleRequest struct {
	Name         string   `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	ListOfSkills []string `json:"listOfSkills,omitempty"`
}

// CreateRole godoc
// @Summary Create a role
// @Tags roles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param role body CreateRoleRequest true "Role details"
// @Success 200 {object} models.Role
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}

	role, err := h.svc.Create(c.Request.Context(), caller(c), body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// SearchRoles godoc
// @Summary Search roles by name
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Param keyword query string false "Case-insensitive name fragment"
// @Success 200 {array} models.Role
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /roles [get]
func (h *RoleHandler) SearchRoles(c *gin.Context) {
	roles, err := h.svc.Search(c.Request.Context(), caller(c), queryString(c, "keyword"))
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, http.StatusOK, roles, nil)
}

// GetRole godoc
// @Summary Get a role by ID
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Role ID"
// @Param fromDb query bool false "Accepted for compatibility, has no effect"
// @Success 200 {object} models.Role
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}

	role, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// UpdateRole godoc
// @Summary Partially update a role
// @Tags roles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param role body UpdateRoleRequest true "Fields to change"
// @Success 200 {object} models.Role
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /roles/{id} [patch]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}

	role, err := h.svc.Update(c.Request.Context(), caller(c), id, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// DeleteRole godoc
// @Summary Delete a role
// @Tags roles
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), caller(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
