// Package discovery holds the grant discovery state machine: query text with
// a debounce, a tag selection, a match mode, and the rule that picks whether
// the view shows the cached listing or a search result.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/felixrdev/grant-tagging-system/internal/domain"
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/query"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/result"
	"github.com/felixrdev/grant-tagging-system/internal/repository/listing"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("discovery: controller closed")

// response is the outcome of one issued search.
type response struct {
	seq uint64
	key string
	res result.Result
	err error
}

// Controller is safe for concurrent use. State changes are announced through
// the WithOnChange callback; the current view is read with State.
type Controller struct {
	searcher Searcher
	catalog  Catalog

	clock    Clock
	debounce time.Duration
	logger   *zap.Logger
	metrics  Metrics
	onChange func()
	onError  func(error)

	mu   sync.Mutex
	idle *sync.Cond

	rawText       string
	debouncedText string
	selected      map[string]struct{}
	mode          mode.Mode

	timer       Timer
	debounceGen uint64

	grants        []grant.Grant
	available     []string
	grantsLoading bool
	tagsLoading   bool
	grantsGen     uint64
	tagsGen       uint64

	// issued is the sequence number of the last search sent; applied is the
	// highest sequence number whose response was accepted.
	issued    uint64
	applied   uint64
	issuedKey string
	last      *response

	inflight    int
	started     bool
	closed      bool
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// New creates a controller in browse mode with no text, no tags and mode "all".
func New(searcher Searcher, catalog Catalog, opts ...Option) *Controller {
	c := &Controller{
		searcher: searcher,
		catalog:  catalog,
		clock:    realClock{},
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		selected: make(map[string]struct{}),
		mode:     mode.Default,
	}
	c.idle = sync.NewCond(&c.mu)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start loads the listing and the tag universe concurrently and subscribes
// to cache invalidations, refetching whatever is invalidated. ctx bounds the
// initial loads only; later work lives until Close. Load failures are
// reported through WithOnError and returned; the controller stays usable.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.unsubscribe = c.catalog.Subscribe(c.onInvalidate)

	grantsGen := c.beginGrantsLocked()
	tagsGen := c.beginTagsLocked()
	c.mu.Unlock()
	c.changed()

	var g errgroup.Group
	g.Go(func() error { return c.loadGrants(ctx, grantsGen) })
	g.Go(func() error { return c.loadTags(ctx, tagsGen) })
	return g.Wait()
}

// Close stops the debounce timer, drops the invalidation subscription and
// waits for in-flight work. Responses arriving afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.cancel()
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.Wait()
}

// Wait blocks until no search or listing fetch is in flight.
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// SetText records the raw query text and rearms the debounce timer.
// The text takes part in the query only once the timer fires uninterrupted.
func (c *Controller) SetText(s string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.rawText = s
	c.stopTimerLocked()
	gen := c.debounceGen
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fireDebounce(gen) })
	c.mu.Unlock()
	c.changed()
}

// ToggleTag adds or removes tag from the selection, taking effect immediately.
func (c *Controller) ToggleTag(tag string) {
	if tag == "" {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.selected[tag]; ok {
		delete(c.selected, tag)
	} else {
		c.selected[tag] = struct{}{}
	}
	c.reconcileLocked()
	c.mu.Unlock()
	c.changed()
}

// SetMode replaces the match mode, taking effect immediately.
func (c *Controller) SetMode(m mode.Mode) error {
	if !m.IsValid() {
		return domain.NewValidation("mode", fmt.Sprintf("must be %q or %q, got %q", mode.All, mode.Any, m))
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mode = m
	c.reconcileLocked()
	c.mu.Unlock()
	c.changed()
	return nil
}

// ClearFilters drops the tag selection and both texts, cancelling any armed
// debounce. The view returns to the cached listing before ClearFilters returns.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.rawText = ""
	c.debouncedText = ""
	clear(c.selected)
	c.reconcileLocked()
	c.mu.Unlock()
	c.changed()
}

// Refresh reloads both listings through the catalog and reissues the current
// search, if any. The catalog serves cached listings as is and only goes to
// the backend for listings missing from the cache, e.g. after a failed load.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	grantsGen := c.beginGrantsLocked()
	tagsGen := c.beginTagsLocked()
	c.issuedKey = ""
	c.reconcileLocked()
	c.goLocked(func() { _ = c.loadGrants(c.ctx, grantsGen) })
	c.goLocked(func() { _ = c.loadTags(c.ctx, tagsGen) })
	c.mu.Unlock()
	c.changed()
}

// Query returns the query currently in effect (debounced text, tags, mode).
func (c *Controller) Query() query.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

// State returns a snapshot of the view.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.queryLocked()
	src := query.Compose(q)

	s := State{
		RawText:       c.rawText,
		SelectedTags:  q.Tags(),
		Mode:          c.mode,
		Source:        src,
		ResolvedTags:  []string{},
		AvailableTags: slices.Clone(c.available),
		GrantsLoading: c.grantsLoading,
		TagsLoading:   c.tagsLoading,
	}
	if s.AvailableTags == nil {
		s.AvailableTags = []string{}
	}

	switch src := src.(type) {
	case query.Searching:
		switch {
		// Only the answer to the latest issued request counts; a query
		// re-entered after a clear waits for its reissued search.
		case c.last == nil || c.last.seq != c.issued || c.last.key != src.Query.Key():
			s.Searching = true
			s.DisplayGrants = []grant.Grant{}
		case c.last.err != nil:
			s.DisplayGrants = []grant.Grant{}
		default:
			s.DisplayGrants = slices.Clone(c.last.res.Grants)
			if len(c.last.res.ResolvedTags) > 0 {
				s.ResolvedTags = slices.Clone(c.last.res.ResolvedTags)
			}
		}
	default:
		s.DisplayGrants = slices.Clone(c.grants)
	}
	if s.DisplayGrants == nil {
		s.DisplayGrants = []grant.Grant{}
	}

	if len(s.DisplayGrants) == 0 && !s.Searching && !(s.GrantsLoading && !s.IsSearch()) {
		if s.HasFilters() {
			s.EmptyMessage, s.EmptyHint = EmptyNoMatch, EmptyNoMatchHint
		} else {
			s.EmptyMessage, s.EmptyHint = EmptyNoGrants, EmptyNoGrantsHint
		}
	}
	return s
}

func (c *Controller) fireDebounce(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.debounceGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.debouncedText = c.rawText
	c.reconcileLocked()
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) stopTimerLocked() {
	c.debounceGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) queryLocked() query.Query {
	tags := make([]string, 0, len(c.selected))
	for t := range c.selected {
		tags = append(tags, t)
	}
	q, err := query.New(c.debouncedText, tags, c.mode)
	if err != nil {
		// mode is validated on entry
		panic(fmt.Sprintf("discovery: invalid held query: %v", err))
	}
	return q
}

// reconcileLocked issues a search when the current query needs one.
// Equal queries never issue twice in a row.
func (c *Controller) reconcileLocked() {
	q := c.queryLocked()
	src, ok := query.Compose(q).(query.Searching)
	if !ok {
		c.issuedKey = ""
		return
	}
	key := src.Query.Key()
	if key == c.issuedKey {
		return
	}
	c.issuedKey = key
	c.issued++
	seq := c.issued
	if c.metrics.Issued != nil {
		c.metrics.Issued.Inc()
	}
	c.logger.Debug("Issuing search", zap.Uint64("seq", seq), zap.Stringer("query", src.Query))
	c.goLocked(func() { c.search(seq, src.Query) })
}

func (c *Controller) search(seq uint64, q query.Query) {
	res, err := c.searcher.AdvancedSearch(c.ctx, q)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if seq < c.applied {
		c.mu.Unlock()
		c.count("stale")
		c.logger.Debug("Discarding stale search response",
			zap.Uint64("seq", seq), zap.Stringer("query", q))
		return
	}
	c.applied = seq
	c.last = &response{seq: seq, key: q.Key(), res: res, err: err}
	c.mu.Unlock()

	if err != nil {
		c.count("error")
		c.fail(fmt.Errorf("search %s: %w", q, err))
	} else {
		c.count("applied")
	}
	c.changed()
}

func (c *Controller) onInvalidate(key listing.Key) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	switch key {
	case listing.KeyGrants:
		gen := c.beginGrantsLocked()
		c.goLocked(func() { _ = c.loadGrants(c.ctx, gen) })
	case listing.KeyTags:
		gen := c.beginTagsLocked()
		c.goLocked(func() { _ = c.loadTags(c.ctx, gen) })
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) beginGrantsLocked() uint64 {
	c.grantsGen++
	c.grantsLoading = true
	return c.grantsGen
}

func (c *Controller) beginTagsLocked() uint64 {
	c.tagsGen++
	c.tagsLoading = true
	return c.tagsGen
}

// loadGrants fetches the listing. Only the latest fetch is applied; a
// failure keeps the previous listing.
func (c *Controller) loadGrants(ctx context.Context, gen uint64) error {
	grants, err := c.catalog.Grants(ctx)

	c.mu.Lock()
	if c.closed || gen != c.grantsGen {
		c.mu.Unlock()
		return err
	}
	c.grantsLoading = false
	if err == nil {
		c.grants = grants
	}
	c.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("load grants: %w", err)
		c.fail(err)
	}
	c.changed()
	return err
}

// loadTags fetches the tag universe and keeps it sorted.
func (c *Controller) loadTags(ctx context.Context, gen uint64) error {
	tags, err := c.catalog.Tags(ctx)

	c.mu.Lock()
	if c.closed || gen != c.tagsGen {
		c.mu.Unlock()
		return err
	}
	c.tagsLoading = false
	if err == nil {
		sorted := slices.Clone(tags)
		slices.SortFunc(sorted, strings.Compare)
		c.available = sorted
	}
	c.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("load tags: %w", err)
		c.fail(err)
	}
	c.changed()
	return err
}

// goLocked runs fn on a tracked goroutine. Callers hold c.mu.
func (c *Controller) goLocked(fn func()) {
	c.inflight++
	go func() {
		defer c.done()
		fn()
	}()
}

func (c *Controller) done() {
	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()
}

func (c *Controller) count(outcome string) {
	if c.metrics.Responses != nil {
		c.metrics.Responses.WithLabelValues(outcome).Inc()
	}
}

func (c *Controller) fail(err error) {
	c.logger.Warn("Discovery operation failed", zap.Error(err))
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
