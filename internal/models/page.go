package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
	// MaxPageNumber keeps Skip within int32 for every allowed limit. Pages
	// past it are always empty.
	MaxPageNumber = math.MaxInt32 / MaxPageLimit
)

// Page is a 1-based offset/limit window over a newest-first listing.
type Page struct {
	Number int
	Limit  int
}

// ParsePage reads page and limit query values. Missing, non-numeric or
// non-positive values fall back to page 1 and DefaultPageLimit. Limit is
// capped at MaxPageLimit and page at MaxPageNumber.
func ParsePage(page, limit string) Page {
	p, err := strconv.Atoi(page)
	if err != nil {
		p = 1
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(page, "-") {
			p = MaxPageNumber
		}
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l < 1 {
		l = DefaultPageLimit
	}
	return Page{Number: p, Limit: l}.Normalize()
}

// Normalize applies the same defaults as ParsePage to an already built Page.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Skip is the number of items before this page.
func (p Page) Skip() int {
	return (p.Number - 1) * p.Limit
}
