package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/user7217/oxygentracker/internal/organization/domain"
)

type createOrganizationBody struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

func (s *Server) ListOrganizations(c *gin.Context) {
	orgs, err := s.organizationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

func (s *Server) CreateOrganization(c *gin.Context) {
	var body createOrganizationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	org, err := s.organizationSvc.Create(c.Request.Context(), organizationdomain.CreateOrganizationRequest{
		Name:      body.Name,
		IsDefault: body.IsDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (s *Server) GetOrganizationByID(c *gin.Context) {
	org, err := s.organizationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}
