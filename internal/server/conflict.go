package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
)

var conflictValidationErrors = []error{
	conflictdomain.ErrInvalidID,
	conflictdomain.ErrInvalidResolution,
	conflictdomain.ErrManualValueMissing,
	conflictdomain.ErrInvalidStatus,
}

func (s *Server) ListConflicts(c *gin.Context) {
	query, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.conflictSvc.List(c.Request.Context(), conflictdomain.ListConflictRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Status:    strings.TrimSpace(query.Status),
		RecordID:  strings.TrimSpace(query.RecordID),
		UploadID:  strings.TrimSpace(query.UploadID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetConflictDetails(c *gin.Context) {
	resp, err := s.conflictSvc.Details(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveConflict(c *gin.Context) {
	var req conflictdomain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.conflictSvc.Resolve(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
