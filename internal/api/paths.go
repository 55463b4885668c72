package api

import (
	"net/url"
	"strconv"
)

const (
	defaultPage      = 0
	defaultSize      = 20
	defaultReplySize = 50
)

// PageOptions selects a page of a list endpoint. A Size of zero or less selects the
// endpoint's default.
type PageOptions struct {
	Page int
	Size int
}

func (o PageOptions) query(defaultPageSize int) url.Values {
	page := o.Page
	if page < 0 {
		page = defaultPage
	}
	size := o.Size
	if size <= 0 {
		size = defaultPageSize
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

func segment(value string) string {
	return url.PathEscape(value)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
