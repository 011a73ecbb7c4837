package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/console-pager/internal/config"
	"github.com/Sternrassler/console-pager/internal/console"
	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/Sternrassler/console-pager/pkg/client"
	"github.com/Sternrassler/console-pager/pkg/logging"
	"github.com/Sternrassler/console-pager/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the dependencies shared by all commands.
type app struct {
	cfg    config.Config
	client *client.Client
	store  cache.Store
	redis  *redis.Client
	logger zerolog.Logger

	// One fetcher per entity, so concurrent pagers share API calls and
	// prefetches.
	users *pagination.Fetcher[client.User]
	items *pagination.Fetcher[client.Item]
	posts *pagination.Fetcher[client.Post]
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	apiClient, err := client.New(client.Config{
		BaseURL:   cfg.API.URL,
		Token:     cfg.API.Token,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create console client: %w", err)
	}

	a := &app{
		cfg:    cfg,
		client: apiClient,
		logger: logging.NewLogger("cli"),
	}

	switch cfg.Cache.Backend {
	case config.BackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.URL, err)
		}
		a.store = cache.NewRedisStore(a.redis)
		a.logger.Info().Str("addr", cfg.Redis.URL).Msg("Connected to Redis")
	default:
		a.store = cache.NewMemoryStore()
	}

	if a.users, err = newFetcher(a, client.EntityUsers, console.UsersSource(apiClient)); err != nil {
		a.Close()
		return nil, err
	}
	if a.items, err = newFetcher(a, client.EntityItems, console.ItemsSource(apiClient)); err != nil {
		a.Close()
		return nil, err
	}
	if a.posts, err = newFetcher(a, client.EntityPosts, console.PostsSource(apiClient)); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func newFetcher[T any](a *app, name string, source pagination.Source[T]) (*pagination.Fetcher[T], error) {
	_, cfg, err := a.pagerConfig(name, nil)
	if err != nil {
		return nil, err
	}
	f, err := pagination.NewFetcher(cfg, source, a.store)
	if err != nil {
		return nil, fmt.Errorf("create %s fetcher: %w", name, err)
	}
	return f, nil
}

// Close releases the API client and the Redis connection.
func (a *app) Close() {
	_ = a.client.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// pagerConfig resolves an entity and its filters into a pager configuration.
func (a *app) pagerConfig(name string, filters pagination.Filters) (console.Entity, pagination.Config, error) {
	entity, err := console.Lookup(name)
	if err != nil {
		return console.Entity{}, pagination.Config{}, err
	}
	if err := entity.ValidateFilters(filters); err != nil {
		return console.Entity{}, pagination.Config{}, err
	}
	return entity, entity.PagerConfig(filters, a.cfg.Cache.TTL, a.cfg.PrefetchTimeout), nil
}

// parseFilters turns name=value arguments into filters.
func parseFilters(args []string) (pagination.Filters, error) {
	if len(args) == 0 {
		return nil, nil
	}
	filters := make(pagination.Filters, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q (want name=value)", arg)
		}
		filters[name] = value
	}
	return filters, nil
}
