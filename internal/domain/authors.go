package domain

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// Authors is the fixed registry of author identities known at post creation.
type Authors struct {
	byID map[string]Author
}

func NewAuthors(names map[string]string, avatars map[string]string) *Authors {
	byID := make(map[string]Author, len(names))

	for id, name := range names {
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if id == "" {
			continue
		}
		if name == "" {
			name = id
		}

		byID[id] = Author{
			ID:        id,
			Name:      name,
			AvatarURL: strings.TrimSpace(avatars[id]),
		}
	}

	return &Authors{byID: byID}
}

func (a *Authors) Get(id string) (Author, bool) {
	if a == nil {
		return Author{}, false
	}

	author, ok := a.byID[strings.TrimSpace(id)]
	return author, ok
}

// Resolve returns the registered author or a bare author carrying only the id.
func (a *Authors) Resolve(id string) Author {
	if author, ok := a.Get(id); ok {
		return author
	}

	id = strings.TrimSpace(id)
	return Author{ID: id, Name: id}
}

func (a *Authors) List() []Author {
	if a == nil {
		return nil
	}

	return slices.SortedFunc(maps.Values(a.byID), func(x, y Author) int {
		return cmp.Or(cmp.Compare(len(x.ID), len(y.ID)), cmp.Compare(x.ID, y.ID))
	})
}
