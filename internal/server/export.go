package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/smallbiznis/revbox/internal/export/domain"
)

var exportValidationErrors = []error{
	exportdomain.ErrInvalidFormat,
	exportdomain.ErrInvalidID,
}

// ExportApproved renders validated records. With download=true a csv export
// is served as a file instead of the JSON envelope.
func (s *Server) ExportApproved(c *gin.Context) {
	var query struct {
		Format    string `form:"format"`
		CarrierID string `form:"carrier_id"`
		Download  string `form:"download"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	download, err := parseOptionalBool(query.Download)
	if err != nil {
		AbortWithError(c, newValidationError("download", "invalid_download", "invalid download"))
		return
	}

	resp, err := s.exportSvc.Export(c.Request.Context(), exportdomain.ExportRequest{
		Format:    query.Format,
		CarrierID: strings.TrimSpace(query.CarrierID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if resp.Format == exportdomain.FormatCSV && download != nil && *download {
		c.Header("Content-Disposition", `attachment; filename="approved_records.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(resp.CSVContent))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
