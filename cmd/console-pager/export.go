package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/console-pager/internal/console"
	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/Sternrassler/console-pager/pkg/client"
	"github.com/Sternrassler/console-pager/pkg/pagination"
	"github.com/spf13/cobra"
)

var exportConcurrency int

var exportCmd = &cobra.Command{
	Use:   "export <entity> [name=value...]",
	Short: "Write every record of a console list as JSON lines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(args[1:])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.export(cmd.Context(), args[0], filters, exportConcurrency, os.Stdout)
		a.logger.Info().Str("entity", args[0]).Int("records", n).Msg("Export finished")
		return err
	},
}

func init() {
	exportCmd.Flags().IntVarP(&exportConcurrency, "concurrency", "c", 4, "Maximum parallel page requests")
}

func (a *app) export(ctx context.Context, name string, filters pagination.Filters, concurrency int, out io.Writer) (int, error) {
	entity, pcfg, err := a.pagerConfig(name, filters)
	if err != nil {
		return 0, err
	}

	batch := pagination.DefaultBatchConfig()
	batch.MaxConcurrency = concurrency

	switch entity.Name {
	case client.EntityUsers:
		return export(ctx, pcfg, console.UsersSource(a.client), a.store, batch, out)
	case client.EntityItems:
		return export(ctx, pcfg, console.ItemsSource(a.client), a.store, batch, out)
	default:
		return export(ctx, pcfg, console.PostsSource(a.client), a.store, batch, out)
	}
}

// export fetches every page and writes one JSON document per record. When
// a page fails the records fetched so far are still written.
func export[T any](ctx context.Context, cfg pagination.Config, source pagination.Source[T], store cache.Store, batch pagination.BatchConfig, out io.Writer) (int, error) {
	bf, err := pagination.NewBatchFetcher(cfg, source, store, batch)
	if err != nil {
		return 0, err
	}

	pages, fetchErr := bf.FetchAllPages(ctx, cfg.Filters)

	enc := json.NewEncoder(out)
	records := pagination.Flatten(pages)
	for i, record := range records {
		if err := enc.Encode(record); err != nil {
			return i, fmt.Errorf("write record: %w", err)
		}
	}

	return len(records), fetchErr
}
