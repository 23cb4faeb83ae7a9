package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 100
)

type Params struct {
	Page     int
	PageSize int
}

// FromQuery reads page/page_size, clamping page_size to MaxPageSize.
func FromQuery(ctx *gin.Context) Params {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Meta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	PageSize    int   `json:"page_size"`
}

type Envelope struct {
	Pagination Meta        `json:"pagination"`
	Results    interface{} `json:"results"`
}

// Wrap builds the list envelope for a page of results.
func Wrap(p Params, total int64, results interface{}) Envelope {
	totalPages := int(total) / p.PageSize
	if int(total)%p.PageSize != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return Envelope{
		Pagination: Meta{
			CurrentPage: p.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			PageSize:    p.PageSize,
		},
		Results: results,
	}
}
