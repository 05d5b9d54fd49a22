package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/query"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/result"
	"github.com/felixrdev/grant-tagging-system/internal/repository/listing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- fake clock ---

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clk     *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due callbacks on the calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// Armed counts timers that have neither fired nor been stopped.
func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// --- fake searcher ---

type reply struct {
	res result.Result
	err error
}

type searchCall struct {
	q     query.Query
	reply chan reply
}

func (c *searchCall) respond(res result.Result, err error) {
	c.reply <- reply{res: res, err: err}
}

// fakeSearcher answers through fn when set; otherwise each call waits for the
// test to respond on the call handed out by next.
type fakeSearcher struct {
	fn    func(q query.Query) (result.Result, error)
	calls chan *searchCall
	count atomic.Int32
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{calls: make(chan *searchCall, 32)}
}

func (s *fakeSearcher) AdvancedSearch(ctx context.Context, q query.Query) (result.Result, error) {
	s.count.Add(1)
	if s.fn != nil {
		return s.fn(q)
	}
	call := &searchCall{q: q, reply: make(chan reply, 1)}
	s.calls <- call
	select {
	case r := <-call.reply:
		return r.res, r.err
	case <-ctx.Done():
		return result.Result{}, ctx.Err()
	}
}

func (s *fakeSearcher) next(t *testing.T) *searchCall {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a search call")
		return nil
	}
}

func (s *fakeSearcher) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-s.calls:
		t.Fatalf("unexpected search call: %s", c.q)
	case <-time.After(20 * time.Millisecond):
	}
}

// --- fake catalog ---

type fakeCatalog struct {
	mu        sync.Mutex
	grants    []grant.Grant
	tags      []string
	grantsErr error
	tagsErr   error
	listener  func(listing.Key)

	grantsCalls atomic.Int32
	tagsCalls   atomic.Int32
}

func (c *fakeCatalog) Grants(_ context.Context) ([]grant.Grant, error) {
	c.grantsCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grants, c.grantsErr
}

func (c *fakeCatalog) Tags(_ context.Context) ([]string, error) {
	c.tagsCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tags, c.tagsErr
}

func (c *fakeCatalog) Subscribe(fn func(listing.Key)) func() {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.listener = nil
		c.mu.Unlock()
	}
}

func (c *fakeCatalog) set(grants []grant.Grant, tags []string) {
	c.mu.Lock()
	c.grants, c.tags = grants, tags
	c.mu.Unlock()
}

func (c *fakeCatalog) invalidate(keys ...listing.Key) {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn == nil {
		return
	}
	for _, k := range keys {
		fn(k)
	}
}

// --- fixtures ---

func g(name string, tags ...string) grant.Grant {
	return grant.Grant{
		Name:         name,
		Description:  name + " description",
		Tags:         tags,
		WebsiteURLs:  []string{},
		DocumentURLs: []string{},
	}
}

var (
	soilGrant      = g("Soil Health Fund", "agriculture", "soil")
	stemGrant      = g("STEM Starter", "education", "stem")
	waterGrant     = g("Clean Water", "water")
	listingFixture = []grant.Grant{soilGrant, stemGrant, waterGrant}
)

type harness struct {
	c        *Controller
	clock    *fakeClock
	searcher *fakeSearcher
	catalog  *fakeCatalog

	mu      sync.Mutex
	errs    []error
	changes atomic.Int32
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:    &fakeClock{},
		searcher: newFakeSearcher(),
		catalog:  &fakeCatalog{grants: listingFixture, tags: []string{"water", "soil", "agriculture", "stem", "education"}},
	}
	base := []Option{
		WithClock(h.clock),
		WithOnChange(func() { h.changes.Add(1) }),
		WithOnError(func(err error) {
			h.mu.Lock()
			h.errs = append(h.errs, err)
			h.mu.Unlock()
		}),
	}
	h.c = New(h.searcher, h.catalog, append(base, opts...)...)
	t.Cleanup(h.c.Close)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func (h *harness) errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func names(grants []grant.Grant) []string {
	out := make([]string, len(grants))
	for i, gr := range grants {
		out[i] = gr.Name
	}
	return out
}
