package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
)

var carrierValidationErrors = []error{
	carrierdomain.ErrInvalidID,
	carrierdomain.ErrInvalidName,
	carrierdomain.ErrInvalidCode,
	carrierdomain.ErrInvalidFileType,
	carrierdomain.ErrInvalidRowIndex,
	carrierdomain.ErrInvalidMapping,
	carrierdomain.ErrSampleNotTabular,
}

func (s *Server) CreateCarrier(c *gin.Context) {
	var req carrierdomain.CreateCarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.carrierSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCarriers(c *gin.Context) {
	query, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.carrierSvc.List(c.Request.Context(), carrierdomain.ListCarrierRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Code:      strings.TrimSpace(query.Code),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCarrierByID(c *gin.Context) {
	resp, err := s.carrierSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCarrier(c *gin.Context) {
	var req carrierdomain.UpdateCarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.carrierSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCarrierFieldMappings(c *gin.Context) {
	var req carrierdomain.UpdateFieldMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.carrierSvc.UpdateFieldMappings(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCarrier(c *gin.Context) {
	if err := s.carrierSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SuggestCarrierMappings proposes a mapping from the header of a sample file.
func (s *Server) SuggestCarrierMappings(c *gin.Context) {
	filename, content, err := s.readUploadedFile(c, "file")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.carrierSvc.SuggestMappings(c.Request.Context(), carrierdomain.SuggestMappingsRequest{
		CarrierID: strings.TrimSpace(c.Param("id")),
		Filename:  filename,
		Content:   content,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
