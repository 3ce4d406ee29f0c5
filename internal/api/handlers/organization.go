package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nebari-dev/authz/internal/service"
)

// OrganizationHandler serves the /organizations endpoints.
type OrganizationHandler struct {
	svc *service.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(svc *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

// OrganizationRequest documents the accepted organization body. The logo
// key keeps its historical spelling.
type OrganizationRequest struct {
	OrganizationName        string `json:"organizationName" example:"Topcoder"`
	AdminEmail              string `json:"adminEmail,omitempty"`
	OrganizationDisplayName string `json:"organizationDisplayName,omitempty"`
	OrganiationImageLogo    string `json:"organiationImageLogo,omitempty"`
}

// CreateOrganization godoc
// @Summary Create an organization
// @Tags organizations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param organization body OrganizationRequest true "Organization details"
// @Success 200 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}

	org, err := h.svc.Create(c.Request.Context(), caller(c), body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// SearchOrganizations godoc
// @Summary Search organizations by name
// @Tags organizations
// @Security BearerAuth
// @Produce json
// @Param keyword query string false "Case-insensitive name fragment"
// @Success 200 {array} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /organizations [get]
func (h *OrganizationHandler) SearchOrganizations(c *gin.Context) {
	orgs, err := h.svc.Search(c.Request.Context(), caller(c), queryString(c, "keyword"))
	if err != nil {
		fail(c, err)
		return
	}
	respondList(c, http.StatusOK, orgs, nil)
}

// GetOrganization godoc
// @Summary Get an organization by ID
// @Tags organizations
// @Security BearerAuth
// @Produce json
// @Param id path int true "Organization ID"
// @Param fromDb query bool false "Accepted for compatibility, has no effect"
// @Success 200 {object} models.Organization
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}

	org, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// UpdateOrganization godoc
// @Summary Partially update an organization
// @Tags organizations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Organization ID"
// @Param organization body OrganizationRequest true "Fields to change"
// @Success 200 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id} [patch]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
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

	org, err := h.svc.Update(c.Request.Context(), caller(c), id, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// DeleteOrganization godoc
// @Summary Delete an organization
// @Tags organizations
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id} [delete]
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
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
