package api

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Envelope is the body every endpoint returns.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// Pagination accompanies paged list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// PageRequest selects one page of a list. Zero values let the backend choose.
type PageRequest struct {
	Page  int
	Limit int
}

// Apply writes page and limit into q when set.
func (p PageRequest) Apply(q url.Values) {
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
}

// Page is a slice of results with the backend's pagination info.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// HasMore reports whether more items exist beyond this page.
func (p Page[T]) HasMore() bool {
	if p.Pagination.Limit <= 0 {
		return false
	}
	page := p.Pagination.Page
	if page <= 0 {
		page = 1
	}
	return page*p.Pagination.Limit < p.Pagination.Total
}
