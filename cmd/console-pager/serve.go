package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Sternrassler/console-pager/pkg/client"
	"github.com/Sternrassler/console-pager/pkg/metrics"
	"github.com/Sternrassler/console-pager/pkg/pagination"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve list pages over HTTP with health and Prometheus endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           a.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info().Str("addr", srv.Addr).Str("api", cfg.API.URL).Str("cache", cfg.Cache.Backend).Msg("Starting console pager server")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		a.logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", a.readyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /pages/{entity}", a.pageHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (a *app) readyHandler(w http.ResponseWriter, r *http.Request) {
	if a.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// pageResponse is the JSON body of GET /pages/{entity}.
type pageResponse[T any] struct {
	Entity          string             `json:"entity"`
	Page            int                `json:"page"`
	Filters         pagination.Filters `json:"filters,omitempty"`
	Items           []T                `json:"items"`
	Count           *int               `json:"count,omitempty"`
	HasNextPage     bool               `json:"has_next_page"`
	HasPreviousPage bool               `json:"has_previous_page"`
}

// pageHandler answers one page of a list. Every request gets its own pager
// from the entity's shared fetcher, so concurrent requests for a page make
// one API call and pages prefetched by earlier requests come from the cache.
// Query parameters other than page are filters.
func (a *app) pageHandler(w http.ResponseWriter, r *http.Request) {
	page := 1
	filters := pagination.Filters{}
	for name, values := range r.URL.Query() {
		if name == "page" {
			p, err := strconv.Atoi(values[0])
			if err != nil || p < 1 {
				writeJSONError(w, http.StatusBadRequest, "page must be a positive integer")
				return
			}
			page = p
			continue
		}
		filters[name] = values[0]
	}
	if len(filters) == 0 {
		filters = nil
	}

	entity, _, err := a.pagerConfig(r.PathValue("entity"), filters)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch entity.Name {
	case client.EntityUsers:
		servePage(w, r, a, entity.Name, a.users.Pager(filters), page)
	case client.EntityItems:
		servePage(w, r, a, entity.Name, a.items.Pager(filters), page)
	default:
		servePage(w, r, a, entity.Name, a.posts.Pager(filters), page)
	}
}

func servePage[T any](w http.ResponseWriter, r *http.Request, a *app, entity string, pager *pagination.Pager[T], page int) {
	defer pager.Close()

	snap, err := pager.SetPage(r.Context(), page)
	if err != nil {
		status := http.StatusBadGateway
		var fetchErr *pagination.FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode >= 400 && fetchErr.StatusCode < 500 {
			status = fetchErr.StatusCode
		}
		writeJSONError(w, status, err.Error())
		return
	}

	resp := pageResponse[T]{
		Entity:          entity,
		Page:            snap.Page,
		Filters:         snap.Filters,
		Items:           snap.Items(),
		Count:           snap.Result.Count,
		HasNextPage:     snap.HasNextPage,
		HasPreviousPage: snap.HasPreviousPage,
	}
	if resp.Items == nil {
		resp.Items = []T{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write page response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
