package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
)

type listQuery struct {
	pagination.Pagination
	Status    string `form:"status"`
	CarrierID string `form:"carrier_id"`
	UploadID  string `form:"upload_id"`
	RecordID  string `form:"record_id"`
	AgentID   string `form:"agent_id"`
	Code      string `form:"code"`
}

func bindListQuery(c *gin.Context) (listQuery, error) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return listQuery{}, invalidRequestError()
	}
	if q.PageSize < 0 {
		return listQuery{}, newValidationError("page_size", "invalid_page_size", "invalid page_size")
	}
	return q, nil
}

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
