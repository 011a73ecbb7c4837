package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyNamespace prefixes every key written by this package.
const KeyNamespace = "pager"

// QueryKey identifies one cached page of a list endpoint.
type QueryKey struct {
	// Entity is the list being paged (e.g., "users", "items", "posts")
	Entity string

	// Filters are the active list filters (e.g., {"language": "en"})
	Filters map[string]string

	// Page is the 1-based page number
	Page int
}

// BuildKey creates a QueryKey for the given entity, filters and page.
// The filter map is copied so later changes by the caller do not alter the key.
func BuildKey(entity string, filters map[string]string, page int) QueryKey {
	var copied map[string]string
	if len(filters) > 0 {
		copied = make(map[string]string, len(filters))
		for k, v := range filters {
			copied[k] = v
		}
	}
	return QueryKey{
		Entity:  entity,
		Filters: copied,
		Page:    page,
	}
}

// String generates a deterministic cache key string.
// Format: pager:entity:filter1=val1:filter2=val2:page=N
//
// Entity, filter names and values are query-escaped, so ":" and "=" inside
// them cannot make two different keys collide.
//
// Example:
//
//	pager:items:language=en:page=2
func (k QueryKey) String() string {
	return k.ListKey() + fmt.Sprintf(":page=%d", k.Page)
}

// ListKey is the key string without the page number. It identifies the
// (entity, filters) list that a page belongs to.
func (k QueryKey) ListKey() string {
	parts := []string{KeyNamespace, escapeEntity(k.Entity)}

	if len(k.Filters) > 0 {
		names := make([]string, 0, len(k.Filters))
		for name, value := range k.Filters {
			// An empty value is the same as an absent filter
			if value == "" {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(k.Filters[name]))
		}
	}

	return strings.Join(parts, ":")
}

// Equal reports whether two keys address the same cached page.
func (k QueryKey) Equal(other QueryKey) bool {
	return k.String() == other.String()
}

// EntityPrefix returns the prefix shared by every key of an entity,
// regardless of filters and page.
func EntityPrefix(entity string) string {
	return KeyNamespace + ":" + escapeEntity(entity) + ":"
}

func escapeEntity(entity string) string {
	return url.QueryEscape(strings.Trim(entity, ":"))
}
