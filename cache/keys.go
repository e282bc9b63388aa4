package cache

import "github.com/goliatone/go-restaurant-api/model"

// EntityKey is the key of a single entity, e.g. "dish:12".
func EntityKey(kind model.Kind, id string) string {
	return kind.String() + ":" + id
}

// ListKey is the key of the entities of kind owned by one parent,
// e.g. "dishes_menu:3".
func ListKey(kind, parent model.Kind, parentID string) string {
	return kind.Plural() + "_" + parent.String() + ":" + parentID
}

// AllKey is the key of the full collection of kind, e.g. "restaurants:all".
func AllKey(kind model.Kind) string {
	return kind.Plural() + ":all"
}

// ParentListKeys returns the ListKey of every parent in refs. Refs without an id
// are skipped.
func ParentListKeys(kind model.Kind, refs []model.ParentRef) []string {
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		keys = append(keys, ListKey(kind, ref.Kind, ref.ID))
	}
	return keys
}
