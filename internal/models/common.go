package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// PageQuery carries pagination inputs parsed from query strings.
type PageQuery struct {
	Page     int
	PageSize int
}

// Limit returns the effective page size.
func (q PageQuery) Limit() int {
	if q.PageSize <= 0 {
		return 50
	}
	return q.PageSize
}

// Offset returns the row offset for the requested page.
func (q PageQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit()
}
