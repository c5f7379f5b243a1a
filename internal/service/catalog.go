package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pkthom/japanese-conjugation-search/internal/dataset"
	"github.com/pkthom/japanese-conjugation-search/internal/model"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrNoDatasets      = errors.New("no datasets could be loaded")
)

const snapshotKey = "catalog:sections"

// Status reports cache readiness for the health endpoint.
type Status struct {
	Ready    bool
	Age      time.Duration
	Sections int
}

// Catalog is the lookup service behind every page and API route. It loads
// conjugation tables from the configured sources, groups them into sections
// and caches the result with stale-while-revalidate semantics.
type Catalog interface {
	// Sections returns every section, loading datasets on first use.
	Sections(ctx context.Context) ([]model.Section, error)

	// Search returns sections whose title, subtitle or any cell contains the
	// query, case-insensitively. An empty query matches nothing.
	Search(ctx context.Context, query string) ([]model.Section, error)

	// BySlug returns the section with the given slug or ErrSectionNotFound.
	BySlug(ctx context.Context, slug string) (*model.Section, error)

	// Status reports whether a snapshot is loaded and how old it is.
	Status() Status

	// Warm preloads the cache. Callers treat failure as non-fatal; the
	// catalog initializes lazily on the first request instead.
	Warm(ctx context.Context) error

	// Invalidate drops the cached snapshot so the next request reloads.
	Invalidate()
}

// Options tune the catalog. Zero values fall back to the production
// defaults: 4-row sections, 10 minute TTL.
type Options struct {
	SectionRows int
	TTL         time.Duration
	Location    *time.Location
}

type snapshot struct {
	sections []model.Section
	bySlug   map[string]*model.Section
	loadedAt time.Time
}

type catalog struct {
	sources     []dataset.Source
	sectionRows int
	ttl         time.Duration
	loc         *time.Location

	store *gocache.Cache

	// refreshing guards against concurrent background refreshes; the limiter
	// spaces out refresh attempts when every request sees a stale snapshot.
	refreshing   atomic.Bool
	refreshLimit *rate.Limiter
}

// NewCatalog constructs a Catalog over the given dataset sources.
func NewCatalog(sources []dataset.Source, opts Options) Catalog {
	if opts.SectionRows <= 0 {
		opts.SectionRows = 4
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &catalog{
		sources:     sources,
		sectionRows: opts.SectionRows,
		ttl:         opts.TTL,
		loc:         opts.Location,
		// Snapshots never expire on their own: a stale snapshot is still the
		// fallback when a reload fails.
		store:        gocache.New(gocache.NoExpiration, 0),
		refreshLimit: rate.NewLimiter(rate.Every(30*time.Second), 1),
	}
}

func (c *catalog) Sections(ctx context.Context) ([]model.Section, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.sections, nil
}

func (c *catalog) Search(ctx context.Context, query string) ([]model.Section, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var results []model.Section
	for _, sec := range snap.sections {
		if sectionMatches(sec, needle) {
			results = append(results, sec)
		}
	}
	return results, nil
}

func (c *catalog) BySlug(ctx context.Context, slug string) (*model.Section, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	sec, ok := snap.bySlug[slug]
	if !ok {
		return nil, ErrSectionNotFound
	}
	return sec, nil
}

func (c *catalog) Status() Status {
	snap := c.peek()
	if snap == nil {
		return Status{}
	}
	return Status{
		Ready:    true,
		Age:      time.Since(snap.loadedAt),
		Sections: len(snap.sections),
	}
}

func (c *catalog) Warm(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

func (c *catalog) Invalidate() {
	c.store.Delete(snapshotKey)
}

// current implements the stale-while-revalidate policy: a snapshot younger
// than the TTL is served as-is; between one and two TTLs the stale snapshot
// is served while a single background refresh runs; past two TTLs (or with
// no snapshot at all) the reload happens synchronously.
func (c *catalog) current(ctx context.Context) (*snapshot, error) {
	snap := c.peek()
	if snap != nil {
		age := time.Since(snap.loadedAt)
		if age < c.ttl {
			return snap, nil
		}
		if age < 2*c.ttl {
			c.refreshInBackground()
			return snap, nil
		}
	}

	fresh, err := c.refresh(ctx)
	if err != nil {
		if snap != nil {
			c.logJSON(map[string]any{
				"level":     "warn",
				"component": "catalog",
				"event":     "serving_stale_snapshot",
				"error":     err.Error(),
				"age_sec":   int(time.Since(snap.loadedAt).Seconds()),
			})
			return snap, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (c *catalog) peek() *snapshot {
	if v, ok := c.store.Get(snapshotKey); ok {
		return v.(*snapshot)
	}
	return nil
}

func (c *catalog) refreshInBackground() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	if !c.refreshLimit.Allow() {
		c.refreshing.Store(false)
		return
	}
	go func() {
		defer c.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := c.refresh(ctx); err != nil {
			c.logJSON(map[string]any{
				"level":     "error",
				"component": "catalog",
				"event":     "background_refresh_failed",
				"error":     err.Error(),
			})
		}
	}()
}

// refresh loads every source concurrently and replaces the snapshot.
// Sources whose dataset does not exist are skipped with a warning; the
// refresh fails only when nothing at all could be loaded.
func (c *catalog) refresh(ctx context.Context) (*snapshot, error) {
	start := time.Now()

	tables := make([]*model.Table, len(c.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			t, err := src.Load(gctx)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					c.logJSON(map[string]any{
						"level":     "warn",
						"component": "catalog",
						"event":     "dataset_missing",
						"dataset":   src.Name(),
					})
					return nil
				}
				return fmt.Errorf("load %s: %w", src.Name(), err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var loaded []*model.Table
	for _, t := range tables {
		if t != nil {
			loaded = append(loaded, t)
		}
	}
	if len(loaded) == 0 {
		return nil, ErrNoDatasets
	}

	sections := buildSections(loaded, c.sectionRows)
	snap := &snapshot{
		sections: sections,
		bySlug:   indexBySlug(sections),
		loadedAt: time.Now(),
	}
	c.store.Set(snapshotKey, snap, gocache.NoExpiration)

	c.logJSON(map[string]any{
		"level":       "info",
		"component":   "catalog",
		"event":       "snapshot_refreshed",
		"datasets":    len(loaded),
		"sections":    len(sections),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return snap, nil
}

func sectionMatches(sec model.Section, needle string) bool {
	if strings.Contains(strings.ToLower(sec.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(sec.Subtitle), needle) {
		return true
	}
	for _, row := range sec.Rows {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), needle) {
				return true
			}
		}
	}
	return false
}

func indexBySlug(sections []model.Section) map[string]*model.Section {
	m := make(map[string]*model.Section, len(sections))
	for i := range sections {
		// First match wins on duplicate titles, as lookups did originally.
		if _, ok := m[sections[i].Slug]; !ok {
			m[sections[i].Slug] = &sections[i]
		}
	}
	return m
}

func (c *catalog) logJSON(data map[string]any) {
	data["ts"] = time.Now().In(c.loc).Format(time.RFC3339Nano)
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
