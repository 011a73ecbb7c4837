// Package console wires the console API lists (users, items, blog posts)
// to generic pagers: page sizes, "more pages" strategies, accepted filters
// and table layout per entity.
package console

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/console-pager/pkg/client"
	"github.com/Sternrassler/console-pager/pkg/pagination"
)

// Page sizes used by the console list views.
const (
	UsersPageSize = 10
	ItemsPageSize = 7
	PostsPageSize = 7
)

// Entity describes one list view of the console.
type Entity struct {
	Name     string
	Path     string
	PageSize int
	Strategy pagination.Strategy

	// Filters are the filter names the endpoint accepts
	Filters []string
}

var entities = map[string]Entity{
	client.EntityUsers: {
		Name:     client.EntityUsers,
		Path:     client.PathUsers,
		PageSize: UsersPageSize,
		Strategy: pagination.StrategyAuto,
	},
	client.EntityItems: {
		Name:     client.EntityItems,
		Path:     client.PathItems,
		PageSize: ItemsPageSize,
		Strategy: pagination.StrategyAuto,
		Filters:  []string{client.FilterLanguage},
	},
	client.EntityPosts: {
		Name:     client.EntityPosts,
		Path:     client.PathPosts,
		PageSize: PostsPageSize,
		Strategy: pagination.StrategyAuto,
	},
}

// Names returns the known entity names, sorted.
func Names() []string {
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the entity with the given name.
func Lookup(name string) (Entity, error) {
	e, ok := entities[strings.ToLower(name)]
	if !ok {
		return Entity{}, fmt.Errorf("unknown entity %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// ValidateFilters rejects filter names the entity's endpoint does not accept.
func (e Entity) ValidateFilters(filters pagination.Filters) error {
	for name := range filters {
		accepted := false
		for _, allowed := range e.Filters {
			if name == allowed {
				accepted = true
				break
			}
		}
		if !accepted {
			return fmt.Errorf("%s does not accept filter %q", e.Name, name)
		}
	}
	return nil
}

// PagerConfig returns the pager configuration of the entity.
func (e Entity) PagerConfig(filters pagination.Filters, cacheTTL, prefetchTimeout time.Duration) pagination.Config {
	cfg := pagination.DefaultConfig(e.Name, e.PageSize)
	cfg.Strategy = e.Strategy
	cfg.Filters = filters
	if cacheTTL > 0 {
		cfg.CacheTTL = cacheTTL
	}
	if prefetchTimeout > 0 {
		cfg.PrefetchTimeout = prefetchTimeout
	}
	return cfg
}

// Source adapts a console list endpoint to a pagination.Source.
func Source[T any](c *client.Client, path string) pagination.Source[T] {
	return func(ctx context.Context, filters pagination.Filters, skip, limit int) (pagination.List[T], error) {
		resp, err := client.List[T](ctx, c, path, filters, skip, limit)
		if err != nil {
			return pagination.List[T]{}, err
		}
		return pagination.List[T]{Items: resp.Data, Count: resp.Count}, nil
	}
}

// UsersSource lists console users.
func UsersSource(c *client.Client) pagination.Source[client.User] {
	return Source[client.User](c, client.PathUsers)
}

// ItemsSource lists catalog items; accepts the language filter.
func ItemsSource(c *client.Client) pagination.Source[client.Item] {
	return Source[client.Item](c, client.PathItems)
}

// PostsSource lists blog posts.
func PostsSource(c *client.Client) pagination.Source[client.Post] {
	return Source[client.Post](c, client.PathPosts)
}

// Table is the column layout of an entity's list view.
type Table[T any] struct {
	Columns []string
	Row     func(T) []string
}

// UsersTable renders users.
var UsersTable = Table[client.User]{
	Columns: []string{"EMAIL", "NAME", "ACTIVE", "ROLE", "LAST SEEN"},
	Row: func(u client.User) []string {
		role := "user"
		switch {
		case u.IsSuperUser:
			role = "superuser"
		case u.IsAdmin:
			role = "admin"
		}
		return []string{u.Email, u.FullName, yesNo(u.IsActive), role, u.LastSeenAt}
	},
}

// ItemsTable renders catalog items.
var ItemsTable = Table[client.Item]{
	Columns: []string{"#", "TITLE", "CATEGORY", "LANG", "PRICE", "QTY", "STATUS"},
	Row: func(i client.Item) []string {
		return []string{
			strconv.Itoa(i.Position),
			i.Title,
			i.Category,
			i.Language,
			strconv.FormatFloat(i.Price, 'f', 2, 64),
			strconv.Itoa(i.Quantity),
			published(i.Status),
		}
	},
}

// PostsTable renders blog posts.
var PostsTable = Table[client.Post]{
	Columns: []string{"#", "TITLE", "IMAGES", "STATUS"},
	Row: func(p client.Post) []string {
		return []string{strconv.Itoa(p.Position), p.Title, strconv.Itoa(len(p.Images)), published(p.Status)}
	},
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func published(v bool) string {
	if v {
		return "published"
	}
	return "draft"
}
