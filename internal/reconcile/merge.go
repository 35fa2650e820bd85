// Package reconcile merges remote posts with the local fallback cache into a
// single view.
package reconcile

import (
	"offblog/internal/domain"
	"slices"
	"time"
)

// Merge concatenates remote and local, keeps the first post seen for each id
// and sorts the result by publication time, newest first. Posts with equal
// timestamps keep their concatenation order. Posts whose timestamp does not
// parse sort after all others, also in concatenation order.
func Merge(remote, local []domain.Post) []domain.Post {
	merged := make([]domain.Post, 0, len(remote)+len(local))
	seen := make(map[string]struct{}, len(remote)+len(local))

	for _, posts := range [][]domain.Post{remote, local} {
		for _, post := range posts {
			if _, ok := seen[post.ID]; ok {
				continue
			}

			seen[post.ID] = struct{}{}
			merged = append(merged, post)
		}
	}

	keys := make(map[string]sortKey, len(merged))
	for _, post := range merged {
		t, ok := post.PublishedTime()
		keys[post.ID] = sortKey{t: t, valid: ok}
	}

	slices.SortStableFunc(merged, func(a, b domain.Post) int {
		return compareDesc(keys[a.ID], keys[b.ID])
	})

	return merged
}

type sortKey struct {
	t     time.Time
	valid bool
}

func compareDesc(a, b sortKey) int {
	switch {
	case a.valid && !b.valid:
		return -1
	case !a.valid && b.valid:
		return 1
	case !a.valid && !b.valid:
		return 0
	default:
		return b.t.Compare(a.t)
	}
}
