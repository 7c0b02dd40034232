package models

// Pagination describes one page of a listing result.
type Pagination struct {
	CurrentCount int `json:"currentCount"`
	TotalCount   int `json:"totalCount"`
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
}

// PageRequest carries validated page/limit parameters. Zero values
// fall back to the defaults used by every listing endpoint.
type PageRequest struct {
	Page  int
	Limit int
}

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// Normalize applies the listing defaults.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewPagination builds the response envelope for a page of results.
func NewPagination(currentCount, totalCount, page, limit int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalCount + limit - 1) / limit
	}
	return Pagination{
		CurrentCount: currentCount,
		TotalCount:   totalCount,
		CurrentPage:  page,
		TotalPages:   totalPages,
	}
}
