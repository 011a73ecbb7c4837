package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/Sternrassler/console-pager/internal/console"
	"github.com/Sternrassler/console-pager/pkg/cache"
	"github.com/Sternrassler/console-pager/pkg/client"
	"github.com/Sternrassler/console-pager/pkg/pagination"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

const browseHelp = "n next  p previous  g <page> go to  f name=value filter  r refresh  q quit"

var browseCmd = &cobra.Command{
	Use:   "browse <entity> [name=value...]",
	Short: "Page through a console list interactively",
	Long:  "Page through the users, items or posts list. The previous page stays on screen, dimmed, while the next one loads.",
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

		return a.browse(cmd.Context(), args[0], filters, os.Stdin, os.Stdout)
	},
}

func (a *app) browse(ctx context.Context, name string, filters pagination.Filters, in io.Reader, out io.Writer) error {
	entity, pcfg, err := a.pagerConfig(name, filters)
	if err != nil {
		return err
	}

	switch entity.Name {
	case client.EntityUsers:
		return browse(ctx, entity, pcfg, console.UsersSource(a.client), a.store, console.UsersTable, in, out)
	case client.EntityItems:
		return browse(ctx, entity, pcfg, console.ItemsSource(a.client), a.store, console.ItemsTable, in, out)
	default:
		return browse(ctx, entity, pcfg, console.PostsSource(a.client), a.store, console.PostsTable, in, out)
	}
}

// browse renders every pager snapshot and drives the pager from line
// commands read from in until "q" or end of input.
func browse[T any](ctx context.Context, entity console.Entity, cfg pagination.Config, source pagination.Source[T], store cache.Store, table console.Table[T], in io.Reader, out io.Writer) error {
	pager, err := pagination.NewPager(cfg, source, store)
	if err != nil {
		return err
	}

	w := &lockedWriter{w: out}
	updates := pager.Subscribe()
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for snap := range updates {
			renderSnapshot(w, entity.Name, table, snap)
		}
	}()
	defer func() {
		_ = pager.Close()
		<-rendered
	}()

	// Failures are part of the rendered snapshot
	_, _ = pager.Load(ctx)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "q", "quit":
			return nil
		case "n", "next":
			_, err = pager.Next(ctx)
		case "p", "prev", "previous":
			_, err = pager.Previous(ctx)
		case "r", "refresh":
			_, err = pager.Refresh(ctx)
		case "g", "go":
			err = gotoPage(ctx, pager, fields[1:])
		case "f", "filter":
			err = applyFilters(ctx, entity, pager, fields[1:])
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}

		var fetchErr *pagination.FetchError
		switch {
		case err == nil, errors.As(err, &fetchErr), errors.Is(err, pagination.ErrSuperseded):
		case errors.Is(err, pagination.ErrGuardViolation):
			w.Println(color.Yellow.Sprint("no such page"))
		default:
			w.Println(color.Yellow.Sprint(err.Error()))
		}
	}

	return scanner.Err()
}

func gotoPage[T any](ctx context.Context, pager *pagination.Pager[T], args []string) error {
	if len(args) != 1 {
		return errors.New("usage: g <page>")
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid page %q", args[0])
	}
	_, err = pager.SetPage(ctx, page)
	return err
}

func applyFilters[T any](ctx context.Context, entity console.Entity, pager *pagination.Pager[T], args []string) error {
	filters, err := parseFilters(args)
	if err != nil {
		return err
	}
	if err := entity.ValidateFilters(filters); err != nil {
		return err
	}
	_, err = pager.SetFilters(ctx, filters)
	return err
}

// renderSnapshot prints the page a snapshot displays. Rows of a stale page
// are dimmed.
func renderSnapshot[T any](w *lockedWriter, entity string, table console.Table[T], snap pagination.Snapshot[T]) {
	result, stale := pagination.DisplayResult(snap)

	var buf bytes.Buffer
	buf.WriteString(color.Bold.Sprintf("%s  page %d", entity, snap.Page))
	if result != nil && result.TotalPages() > 0 {
		fmt.Fprintf(&buf, "/%d", result.TotalPages())
	}
	if len(snap.Filters) > 0 {
		fmt.Fprintf(&buf, "  %s", formatFilters(snap.Filters))
	}
	switch snap.State {
	case pagination.StateLoading:
		buf.WriteString(color.Cyan.Sprint("  loading..."))
	case pagination.StateError:
		buf.WriteString(color.Red.Sprintf("  page %d failed: %v", snap.RequestedPage, snap.Err))
	}
	buf.WriteString("\n")

	if snap.State == pagination.StateIdle {
		w.Write(buf.Bytes())
		return
	}

	var rows bytes.Buffer
	tw := tabwriter.NewWriter(&rows, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Columns, "\t"))
	if result != nil {
		for _, item := range result.Items {
			fmt.Fprintln(tw, strings.Join(table.Row(item), "\t"))
		}
	}
	_ = tw.Flush()

	lines := strings.Split(strings.TrimRight(rows.String(), "\n"), "\n")
	for i, line := range lines {
		if i > 0 && stale {
			line = color.Gray.Sprint(line)
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	if result != nil && len(result.Items) == 0 {
		buf.WriteString("(no records)\n")
	}

	nav := []string{}
	if snap.HasPreviousPage {
		nav = append(nav, "< prev")
	}
	if snap.HasNextPage {
		nav = append(nav, "next >")
	}
	fmt.Fprintf(&buf, "%s   [%s]\n", strings.Join(nav, "  "), browseHelp)

	w.Write(buf.Bytes())
}

func formatFilters(filters pagination.Filters) string {
	parts := make([]string, 0, len(filters))
	for name, value := range filters {
		parts = append(parts, name+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// lockedWriter serializes writes from the render goroutine and the
// command loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (l *lockedWriter) Println(s string) {
	_, _ = l.Write([]byte(s + "\n"))
}
