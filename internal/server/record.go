package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
)

var recordValidationErrors = []error{
	recorddomain.ErrInvalidID,
	recorddomain.ErrInvalidStatus,
}

func (s *Server) ListRecords(c *gin.Context) {
	query, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.recordSvc.List(c.Request.Context(), recorddomain.ListRecordRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Status:    strings.TrimSpace(query.Status),
		CarrierID: strings.TrimSpace(query.CarrierID),
		UploadID:  strings.TrimSpace(query.UploadID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRecordByID(c *gin.Context) {
	resp, err := s.recordSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidateRecord(c *gin.Context) {
	resp, err := s.recordSvc.Validate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectRecord(c *gin.Context) {
	resp, err := s.recordSvc.Reject(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
