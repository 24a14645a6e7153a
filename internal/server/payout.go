package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	payoutdomain "github.com/smallbiznis/revbox/internal/payout/domain"
)

var payoutValidationErrors = []error{
	payoutdomain.ErrInvalidID,
	payoutdomain.ErrInvalidStatus,
	payoutdomain.ErrEmptyRequest,
}

func (s *Server) GeneratePayouts(c *gin.Context) {
	// Accepts {"record_ids": [...]} or a bare array of record ids.
	var req payoutdomain.GenerateRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		var ids []string
		if err := c.ShouldBindBodyWith(&ids, binding.JSON); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		req.RecordIDs = ids
	}

	resp, err := s.payoutSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayouts(c *gin.Context) {
	query, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.payoutSvc.List(c.Request.Context(), payoutdomain.ListPayoutRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Status:    strings.TrimSpace(query.Status),
		AgentID:   strings.TrimSpace(query.AgentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayoutByID(c *gin.Context) {
	resp, err := s.payoutSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CompletePayout(c *gin.Context) {
	resp, err := s.payoutSvc.Complete(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
