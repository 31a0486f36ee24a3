package models

import "fmt"

// SortKey is a server-side ordering of the game list
type SortKey string

const (
	SortNewest     SortKey = "created_at_desc"
	SortOldest     SortKey = "created_at_asc"
	SortTitleAsc   SortKey = "title_asc"
	SortTitleDesc  SortKey = "title_desc"
	SortRatingDesc SortKey = "avg_rating_desc"
	SortRatingAsc  SortKey = "avg_rating_asc"
)

// DefaultSort is the ordering used when none is chosen.
const DefaultSort = SortNewest

// SortKeys lists every supported ordering in display order.
func SortKeys() []SortKey {
	return []SortKey{SortNewest, SortOldest, SortTitleAsc, SortTitleDesc, SortRatingDesc, SortRatingAsc}
}

// Valid reports whether k is one of the supported keys.
func (k SortKey) Valid() bool {
	for _, s := range SortKeys() {
		if s == k {
			return true
		}
	}
	return false
}

// ParseSortKey converts user input into a SortKey. Empty input yields DefaultSort.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSort, nil
	}
	k := SortKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}
