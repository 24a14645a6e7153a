package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customfielddomain "github.com/smallbiznis/revbox/internal/customfield/domain"
)

var customFieldValidationErrors = []error{
	customfielddomain.ErrInvalidFieldName,
	customfielddomain.ErrInvalidFieldLabel,
	customfielddomain.ErrInvalidFieldType,
}

func (s *Server) ListCustomFields(c *gin.Context) {
	resp, err := s.customFieldSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CreateCustomField accepts JSON or form-encoded bodies.
func (s *Server) CreateCustomField(c *gin.Context) {
	var req customfielddomain.CreateCustomFieldRequest
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customFieldSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCustomField(c *gin.Context) {
	if err := s.customFieldSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("name"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
