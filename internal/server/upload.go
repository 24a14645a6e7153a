package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
)

var uploadValidationErrors = []error{
	uploaddomain.ErrInvalidID,
	uploaddomain.ErrInvalidStatus,
	uploaddomain.ErrEmptyFile,
	uploaddomain.ErrFileTypeMismatch,
	uploaddomain.ErrPreviewExcelOnly,
}

// CreateUpload ingests a multipart file for the carrier named by carrier_id.
// The response carries the final upload status; extraction failures are
// reported on the upload rather than as an HTTP error.
func (s *Server) CreateUpload(c *gin.Context) {
	carrierID := strings.TrimSpace(c.PostForm("carrier_id"))
	if carrierID == "" {
		AbortWithError(c, newValidationError("carrier_id", "required", "carrier_id is required"))
		return
	}
	c.Set("carrier_id", carrierID)

	filename, content, err := s.readUploadedFile(c, "file")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.uploadSvc.Ingest(c.Request.Context(), uploaddomain.IngestRequest{
		CarrierID: carrierID,
		Filename:  filename,
		Content:   content,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("upload_id", resp.ID.String())

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PreviewUpload(c *gin.Context) {
	filename, content, err := s.readUploadedFile(c, "file")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.uploadSvc.Preview(c.Request.Context(), filename, content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUploads(c *gin.Context) {
	query, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.uploadSvc.List(c.Request.Context(), uploaddomain.ListUploadRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Status:    strings.TrimSpace(query.Status),
		CarrierID: strings.TrimSpace(query.CarrierID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUploadByID(c *gin.Context) {
	resp, err := s.uploadSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUploadRecords(c *gin.Context) {
	resp, err := s.uploadSvc.Records(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteUpload(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("upload_id", id)

	resp, err := s.uploadSvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// readUploadedFile reads one multipart file, bounded by MaxUploadBytes.
func (s *Server) readUploadedFile(c *gin.Context, field string) (string, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil, newValidationError(field, "required", field+" is required")
	}

	limit := s.cfg.MaxUploadBytes
	if limit > 0 && header.Size > limit {
		return "", nil, ErrFileTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	if limit > 0 && int64(len(content)) > limit {
		return "", nil, ErrFileTooLarge
	}

	return filepath.Base(header.Filename), content, nil
}
