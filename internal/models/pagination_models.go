package models

// Page describes a paginated response in the shape terminals expect.
type Page[T any] struct {
	Data         []T `json:"data"`
	TotalRecords int `json:"totalRecords"`
	TotalPages   int `json:"totalPages"`
	PageNumber   int `json:"pageNumber"`
}

// NewPage computes the page count from the record total.
func NewPage[T any](data []T, totalRecords, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (totalRecords + limit - 1) / limit
	}
	return Page[T]{Data: data, TotalRecords: totalRecords, TotalPages: totalPages, PageNumber: page}
}
