package controllers

import "github.com/sanjuan-tahitic/api-go/services"

type StandardResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data,omitempty"`
	Meta       interface{}     `json:"meta,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

type PageQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"pageSize,default=12"`
}

func (q PageQuery) normalize() services.Page {
	return services.NewPage(q.Page, q.PageSize)
}

func newPaginationMeta(page services.Page, total int64) *PaginationMeta {
	pages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return &PaginationMeta{
		CurrentPage: page.Number,
		PageSize:    page.Size,
		TotalItems:  total,
		TotalPages:  pages,
	}
}
