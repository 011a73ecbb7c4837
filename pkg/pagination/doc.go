// Package pagination implements the list-view pager shared by the users,
// items and blog post tables.
//
// A Pager owns the state of one paginated view: the current page, the last
// loaded result and whether that result is stale. It fetches pages through a
// Source (one skip/limit call per page, no retry), keeps them in a shared
// cache.Store addressed by (entity, filters, page), and emits an immutable
// Snapshot on every transition:
//
//	Idle(1) -> Loading(p) -> Loaded(p) | Error(p)
//
// While a page loads the previous result stays visible and is flagged stale,
// so a view never flashes empty between pages (see DisplayResult). When a
// fetch fails the displayed page reverts to the last loaded one.
//
// Example usage:
//
//	cfg := pagination.DefaultConfig("items", 7)
//	pager, err := pagination.NewPager(cfg, itemsSource, store)
//	snap, err := pager.SetPage(ctx, 1)
//	for _, item := range snap.Items() { ... }
//	if snap.HasNextPage {
//		snap, err = pager.Next(ctx)
//	}
//
// "More pages" detection is per list (Strategy): endpoints that report a
// total count use it, the others fall back to the full-page heuristic where
// a page holding exactly PageSize records may have a successor.
//
// After each load with a next page the Prefetcher fetches page+1 in the
// background. Concurrent navigations are resolved last-request-wins.
//
// Pagers that serve many views of one entity, such as one per HTTP request,
// should come from a shared Fetcher so loads of the same page and prefetches
// are made once:
//
//	items, err := pagination.NewFetcher(cfg, itemsSource, store)
//	pager := items.Pager(pagination.Filters{"language": "en"})
//
// BatchFetcher reads every page of a list for export, in parallel when the
// endpoint reports a count.
package pagination
