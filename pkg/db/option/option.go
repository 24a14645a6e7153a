package option

import (
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// ApplyPagination limits the statement to PageSize+1 rows so callers can
// detect a further page, and seeks past the cursor in created_at desc, id desc order.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = pagination.DefaultPageSize
		}
		if size > pagination.MaxPageSize {
			size = pagination.MaxPageSize
		}

		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil {
				id, idErr := strconv.ParseInt(cursor.ID, 10, 64)
				createdAt, timeErr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
				if idErr == nil && timeErr == nil {
					db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
				}
			}
		}
		return db.Limit(size + 1)
	})
}

// QuerySortBy restricts caller-provided ordering to an allow-list of columns.
type QuerySortBy struct {
	Column string
	Desc   bool
	Allow  map[string]bool
}

// WithSortBy orders by the requested column when allowed, falling back to created_at desc.
func WithSortBy(sort QuerySortBy) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		column := strings.ToLower(strings.TrimSpace(sort.Column))
		if column == "" || !sort.Allow[column] {
			return db.Order("created_at desc").Order("id desc")
		}
		direction := "asc"
		if sort.Desc {
			direction = "desc"
		}
		return db.Order(column + " " + direction).Order("id " + direction)
	})
}

// WithEquals adds an equality filter when value is non-empty.
func WithEquals(column, value string) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		value = strings.TrimSpace(value)
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	})
}
