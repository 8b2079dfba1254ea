// Package rank enforces the total display ordering of scored listings.
package rank

import (
	"sort"

	"dsty-finder/internal/models"
)

// Rank filters out inactive listings and sorts the rest by:
//  1. score descending
//  2. walk_to_stop_min ascending, listings without a stop last
//  3. found_at descending
//  4. id ascending
//
// The ordering is total, so identical inputs always produce identical
// output sequences.
func Rank(listings []models.Listing) []models.Listing {
	ranked := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Active {
			ranked = append(ranked, l)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(&ranked[i], &ranked[j])
	})

	return ranked
}

// Top returns the first n ranked listings.
func Top(listings []models.Listing, n int) []models.Listing {
	ranked := Rank(listings)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func less(a, b *models.Listing) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}

	if c := compareWalk(a.WalkToStopMin, b.WalkToStopMin); c != 0 {
		return c < 0
	}

	if !a.FoundAt.Equal(b.FoundAt) {
		return a.FoundAt.After(b.FoundAt)
	}

	return a.ID < b.ID
}

// compareWalk orders walk minutes ascending with nil (no coordinates) last.
func compareWalk(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}
