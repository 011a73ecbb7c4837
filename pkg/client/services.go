package client

import (
	"context"
	"net/url"
	"strconv"
)

// Entity names and list paths of the console API.
const (
	EntityUsers = "users"
	EntityItems = "items"
	EntityPosts = "posts"

	PathUsers = "/v1/users/"
	PathItems = "/v1/items/"
	PathPosts = "/v1/blog/"
)

// FilterLanguage is the items list language filter.
const FilterLanguage = "language"

// List reads one slice of a list endpoint. Empty filter values are not sent.
func List[T any](ctx context.Context, c *Client, path string, filters map[string]string, skip, limit int) (ListResponse[T], error) {
	query := url.Values{}
	for name, value := range filters {
		if value != "" {
			query.Set(name, value)
		}
	}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(limit))

	var out ListResponse[T]
	if err := c.GetJSON(ctx, path, query, &out); err != nil {
		return ListResponse[T]{}, err
	}
	return out, nil
}

// ListUsers retrieves users.
func (c *Client) ListUsers(ctx context.Context, skip, limit int) (ListResponse[User], error) {
	return List[User](ctx, c, PathUsers, nil, skip, limit)
}

// ListItems retrieves products, optionally restricted to one language.
func (c *Client) ListItems(ctx context.Context, language string, skip, limit int) (ListResponse[Item], error) {
	return List[Item](ctx, c, PathItems, map[string]string{FilterLanguage: language}, skip, limit)
}

// ListPosts retrieves blog posts.
func (c *Client) ListPosts(ctx context.Context, skip, limit int) (ListResponse[Post], error) {
	return List[Post](ctx, c, PathPosts, nil, skip, limit)
}
