package user

import (
	"fmt"
	"strings"
)

// Paging defaults and bounds for list requests.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultSort     = "createdAt"
)

// SortFields lists the response fields a page may be ordered by.
var SortFields = []string{"id", "email", "name", "phoneNumber", "status", "createdAt", "updatedAt"}

// SortSpec orders a page by one field.
type SortSpec struct {
	Field string
	Desc  bool
}

// DefaultSortSpec orders by creation time, newest first.
func DefaultSortSpec() SortSpec {
	return SortSpec{Field: DefaultSort, Desc: true}
}

// String renders the order as "field: DIRECTION"; it is part of the list cache key.
func (s SortSpec) String() string {
	if s.Desc {
		return s.Field + ": DESC"
	}
	return s.Field + ": ASC"
}

// ParseSort reads "field" or "field,asc|desc". An empty value yields the default.
func ParseSort(raw string) (SortSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSortSpec(), nil
	}

	field, direction, _ := strings.Cut(raw, ",")
	s := SortSpec{Field: strings.TrimSpace(field)}
	if !knownSortField(s.Field) {
		return SortSpec{}, fmt.Errorf("unknown sort field %q", s.Field)
	}

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "asc":
	case "desc":
		s.Desc = true
	default:
		return SortSpec{}, fmt.Errorf("unknown sort direction %q", direction)
	}
	return s, nil
}

func knownSortField(field string) bool {
	for _, f := range SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// PageRequest selects a zero-based page.
type PageRequest struct {
	Page int
	Size int
	Sort SortSpec
}

// DefaultPageRequest returns the first page with default size and order.
func DefaultPageRequest() PageRequest {
	return PageRequest{Page: 0, Size: DefaultPageSize, Sort: DefaultSortSpec()}
}

// Offset is the number of rows preceding the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Validate checks page bounds and the sort field.
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("page must not be negative, got %d", p.Page)
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return fmt.Errorf("size must be between 1 and %d, got %d", MaxPageSize, p.Size)
	}
	if !knownSortField(p.Sort.Field) {
		return fmt.Errorf("unknown sort field %q", p.Sort.Field)
	}
	return nil
}

// Page is a listing snapshot: items plus paging metadata.
type Page struct {
	Content       []Response `json:"content" msgpack:"content"`
	Page          int        `json:"page" msgpack:"page"`
	Size          int        `json:"size" msgpack:"size"`
	TotalElements int64      `json:"totalElements" msgpack:"totalElements"`
	TotalPages    int        `json:"totalPages" msgpack:"totalPages"`
}

// NewPage builds a page from store rows and the total row count.
func NewPage(users []User, total int64, req PageRequest) Page {
	content := make([]Response, 0, len(users))
	for i := range users {
		content = append(content, NewResponse(&users[i]))
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return Page{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
