// Package pagination slices ordered result sets into fixed-size pages
// addressed by 1-based page number.
package pagination

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the number of items per listing page.
const DefaultPageSize = 10

// ErrPageOutOfRange is returned when a page beyond 1 is requested from an
// empty result set.
var ErrPageOutOfRange = errors.New("page out of range")

// Window addresses one page of an ordered result set. Offset and Limit are
// ready to hand to a store query; the remaining fields are page metadata.
type Window struct {
	Page       int
	PageSize   int
	Offset     int
	Limit      int
	TotalItems int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Resolve computes the window for the requested page over totalItems items.
//
// A requested page below 1 means "first page". A requested page beyond the
// last valid page clamps to the last page rather than returning an empty
// result, except over an empty set: there page 1 yields an empty window and
// anything beyond it fails with ErrPageOutOfRange. Total pages is
// ceil(totalItems/pageSize) with a minimum of 1.
func Resolve(totalItems, pageSize, requested int) (Window, error) {
	if pageSize < 1 {
		return Window{}, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if totalItems < 0 {
		return Window{}, fmt.Errorf("total items must not be negative, got %d", totalItems)
	}

	if requested < 1 {
		requested = 1
	}

	if totalItems == 0 {
		if requested > 1 {
			return Window{}, ErrPageOutOfRange
		}
		return Window{
			Page:       1,
			PageSize:   pageSize,
			Limit:      pageSize,
			TotalPages: 1,
		}, nil
	}

	totalPages := (totalItems + pageSize - 1) / pageSize
	page := requested
	if page > totalPages {
		page = totalPages
	}

	return Window{
		Page:       page,
		PageSize:   pageSize,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}, nil
}

// Slice applies pagination to an in-memory ordered sequence and returns the
// items for the resolved page alongside its window.
func Slice[T any](items []T, pageSize, requested int) ([]T, Window, error) {
	w, err := Resolve(len(items), pageSize, requested)
	if err != nil {
		return nil, Window{}, err
	}

	end := w.Offset + w.Limit
	if end > len(items) {
		end = len(items)
	}

	return items[w.Offset:end], w, nil
}
