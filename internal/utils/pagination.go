package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PaginationParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	SortBy   string `json:"sort_by"`
	SortDir  string `json:"sort_dir"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	Total      int64 `json:"total"`
}

func GetPaginationParams(c *gin.Context) *PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))

	if page < 1 {
		page = 1
	}
	if pageSize < MinPageSize {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	sortDir := c.DefaultQuery("sort_dir", "desc")
	if sortDir != "asc" && sortDir != "desc" {
		sortDir = "desc"
	}

	return &PaginationParams{
		Page:     page,
		PageSize: pageSize,
		SortBy:   c.DefaultQuery("sort_by", "created_at"),
		SortDir:  sortDir,
	}
}

func (p *PaginationParams) GetSkip() int64 {
	return int64((p.Page - 1) * p.PageSize)
}

func (p *PaginationParams) GetLimit() int64 {
	return int64(p.PageSize)
}

func (p *PaginationParams) GetFindOptions() *options.FindOptions {
	dir := -1
	if p.SortDir == "asc" {
		dir = 1
	}

	return options.Find().
		SetSkip(p.GetSkip()).
		SetLimit(p.GetLimit()).
		SetSort(bson.D{{Key: p.SortBy, Value: dir}})
}

func CreatePaginationMeta(params *PaginationParams, total int64) *PaginationMeta {
	totalPages := total / int64(params.PageSize)
	if total%int64(params.PageSize) != 0 {
		totalPages++
	}

	return &PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}
