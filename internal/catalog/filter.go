// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package catalog

import (
	"strconv"
	"strings"
)

// Pagination limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter selects movies. Text fields match case-insensitive substrings.
type Filter struct {
	Title    string
	Director string
	Producer string
	Limit    int
	Offset   int
}

// Page is one slice of a filtered listing. Count is the total number of
// matches, not the length of Results.
type Page struct {
	Results []Movie `json:"results"`
	Page    int     `json:"page"`
	Count   int     `json:"count"`
	Limit   int     `json:"limit"`
}

// ParseFilter reads a Filter from query parameters.
func ParseFilter(get func(string) string) (Filter, error) {
	f := Filter{
		Title:    get("title"),
		Director: get("director"),
		Producer: get("producer"),
	}
	var err error
	if f.Limit, err = parseInt(get("limit"), "limit"); err != nil {
		return Filter{}, err
	}
	if f.Offset, err = parseInt(get("offset"), "offset"); err != nil {
		return Filter{}, err
	}
	return f.Normalize()
}

// Normalize applies defaults and validates bounds.
func (f Filter) Normalize() (Filter, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Director = strings.TrimSpace(f.Director)
	f.Producer = strings.TrimSpace(f.Producer)

	switch {
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit < 0:
		return Filter{}, invalidMovie("limit", "limit must be a positive number")
	case f.Limit > MaxLimit:
		return Filter{}, invalidMovie("limit", "limit must not be greater than 100")
	}
	if f.Offset < 0 {
		return Filter{}, invalidMovie("offset", "offset must not be less than 0")
	}
	return f, nil
}

// PageNumber is the 1-based page the offset falls on.
func (f Filter) PageNumber() int {
	if f.Limit <= 0 {
		return 1
	}
	return f.Offset/f.Limit + 1
}

func parseInt(s, field string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalidMovie(field, field+" must be an integer number")
	}
	return n, nil
}
