package pagination

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Params represents pagination and sort parameters
type Params struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Offset int    `json:"-"`
	Sort   string `json:"sort,omitempty"`
	Desc   bool   `json:"desc,omitempty"`
}

// Meta represents pagination metadata
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// DefaultLimit is the default number of items per page
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// GetParams extracts pagination parameters from the request.
// sort=<field> is accepted only when field is in sortable; a leading "-" sorts descending.
// Without a valid sort the defaultSort applies, newest first.
func GetParams(c *fiber.Ctx, defaultSort string, sortable ...string) *Params {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(DefaultLimit)))
	return newParams(page, limit, c.Query("sort"), defaultSort, sortable)
}

func newParams(page, limit int, sort, defaultSort string, sortable []string) *Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	p := &Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Sort:   defaultSort,
		Desc:   true,
	}

	desc := strings.HasPrefix(sort, "-")
	field := strings.TrimPrefix(sort, "-")
	for _, allowed := range sortable {
		if field == allowed {
			p.Sort = field
			p.Desc = desc
			break
		}
	}
	return p
}

// OrderClause renders the sort as an SQL ORDER BY fragment
func (p *Params) OrderClause() string {
	if p.Sort == "" {
		return ""
	}
	if p.Desc {
		return p.Sort + " DESC"
	}
	return p.Sort + " ASC"
}

// GetMeta calculates pagination metadata
func GetMeta(params *Params, total int64) *Meta {
	totalPages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		totalPages++
	}

	return &Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
