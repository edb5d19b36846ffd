package hub

import (
	"sort"

	"github.com/cribeiro84/prhub/internal/prefs"
)

// SortRows orders rows by creation date in the given direction, breaking ties
// by pull request id, and renumbers their Index.
func SortRows(rows []Row, dir prefs.SortDirection) {
	if len(rows) < 2 {
		reindexRows(rows)
		return
	}
	if !prefs.IsValidSortDirection(dir) {
		dir = prefs.SortDescending
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if dir == prefs.SortAscending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if dir == prefs.SortAscending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	reindexRows(rows)
}

func reindexRows(rows []Row) {
	for i := range rows {
		rows[i].Index = i + 1
	}
}
