// Package query implements the admin visitor listing pipeline:
// filter, sort newest first, then paginate.
package query

import (
	"errors"
	"sort"
	"strings"

	"github.com/mmynk/checkin/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	// MaxLimit caps the page size; larger requests are clamped.
	MaxLimit = 1000
)

var (
	ErrInvalidPage  = errors.New("page must be a positive integer")
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)

// Filter narrows the visitor set. Empty fields are ignored.
type Filter struct {
	// Search matches case-insensitively against name, email and company,
	// and as a plain substring against phone.
	Search string
	// Purpose must match exactly.
	Purpose string
	// StartDate and EndDate bound the check-in timestamp, compared as strings.
	StartDate string
	EndDate   string
}

// Result is the pagination envelope returned to admin clients.
type Result struct {
	Data  []models.Visitor `json:"data"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Pages int              `json:"pages"`
}

// Run filters, sorts and paginates visitors. The input slice is not modified.
// page must be >= 1 and limit >= 1; limit above MaxLimit is clamped.
func Run(visitors []models.Visitor, f Filter, page, limit int) (*Result, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	matched := Apply(visitors, f)
	SortNewestFirst(matched)

	total := len(matched)
	pages := (total + limit - 1) / limit

	// Pages past the end are empty. Checking against pages first keeps
	// (page-1)*limit below total, so it cannot overflow.
	start, end := total, total
	if page <= pages {
		start = (page - 1) * limit
		end = min(start+limit, total)
	}

	return &Result{
		Data:  matched[start:end],
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}, nil
}

// Apply returns the visitors matching every non-empty field of f, in input order.
func Apply(visitors []models.Visitor, f Filter) []models.Visitor {
	preds := f.predicates()
	out := make([]models.Visitor, 0, len(visitors))
	for _, v := range visitors {
		if matchesAll(v, preds) {
			out = append(out, v)
		}
	}
	return out
}

type predicate func(models.Visitor) bool

// predicates are built in a fixed order: search, purpose, start date, end date.
func (f Filter) predicates() []predicate {
	var preds []predicate
	if f.Search != "" {
		preds = append(preds, searchPredicate(f.Search))
	}
	if f.Purpose != "" {
		purpose := f.Purpose
		preds = append(preds, func(v models.Visitor) bool { return v.Purpose == purpose })
	}
	if f.StartDate != "" {
		start := f.StartDate
		preds = append(preds, func(v models.Visitor) bool { return v.CheckinTime >= start })
	}
	if f.EndDate != "" {
		end := f.EndDate
		preds = append(preds, func(v models.Visitor) bool { return v.CheckinTime <= end })
	}
	return preds
}

func searchPredicate(search string) predicate {
	needle := strings.ToLower(search)
	return func(v models.Visitor) bool {
		if strings.Contains(strings.ToLower(v.Name), needle) ||
			strings.Contains(strings.ToLower(v.Email), needle) {
			return true
		}
		if v.Company != nil && strings.Contains(strings.ToLower(*v.Company), needle) {
			return true
		}
		return strings.Contains(v.Phone, needle)
	}
}

func matchesAll(v models.Visitor, preds []predicate) bool {
	for _, p := range preds {
		if !p(v) {
			return false
		}
	}
	return true
}

// SortNewestFirst orders visitors by check-in timestamp, descending.
// Equal timestamps keep their relative order.
func SortNewestFirst(visitors []models.Visitor) {
	sort.SliceStable(visitors, func(i, j int) bool {
		return visitors[i].CheckinTime > visitors[j].CheckinTime
	})
}
