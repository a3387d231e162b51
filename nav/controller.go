// Package nav owns the current page position, the back/forward history,
// and the state machine that drives fetches through the resolver.
package nav

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"tekstitv/markup"
	"tekstitv/page"
)

// State is the controller's display state.
type State int

const (
	// Idle means no page has been requested yet.
	Idle State = iota
	// Loading means a fetch pipeline is in flight.
	Loading
	// Displaying means the current page resolved successfully.
	Displaying
	// Failed means the last navigation failed; recoverable via Reload
	// or by navigating elsewhere.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Displaying:
		return "displaying"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrNoHistory signals Back or Forward at a stack boundary. It is a
// structural no-op, not a fetch failure; state is left unchanged.
var ErrNoHistory = errors.New("no history in that direction")

// Snapshot is a point-in-time read of the controller for the host.
type Snapshot struct {
	State State
	ID    page.PageId // the page in focus: the target while loading
	Page  *page.Page  // non-nil in Displaying
	Err   error       // non-nil in Failed
}

// Options configures a Controller.
type Options struct {
	Logger *slog.Logger
	// OnChange, when set, is called after every state transition with a
	// fresh snapshot. It runs outside the controller lock.
	OnChange func(Snapshot)
}

type navOp int

const (
	opGoto navOp = iota
	opBack
	opForward
	opSubpage
	opReload
)

// Controller is the single writer of navigation state. Fetches run in
// the background and deliver their result back as a completion; stale
// completions (superseded by a newer operation) are dropped, though
// their pages stay cached for future use.
type Controller struct {
	mu       sync.Mutex
	res      Resolver
	log      *slog.Logger
	onChange func(Snapshot)

	state   State
	current page.PageId // displayed id, tracks subpage cycling
	entered page.PageId // id the page was entered with; history key
	pg      *page.Page
	err     error

	back    []page.PageId
	forward []page.PageId

	seq     uint64 // bumped per operation; guards against stale completions
	target  page.PageId
	pending navOp
}

// NewController creates a controller over the given resolver.
func NewController(res Resolver, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		res:      res,
		log:      opts.Logger,
		onChange: opts.OnChange,
		state:    Idle,
	}
}

// Snapshot returns the current state for the host to render.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{State: c.state, ID: c.current, Page: c.pg, Err: c.err}
	if c.state == Loading {
		s.ID = c.target
	}
	return s
}

// Goto navigates to a page. A goto to the page already being displayed
// is a no-op. Invalid ids fail before any fetch starts.
func (c *Controller) Goto(id page.PageId) error {
	if id.Subpage == 0 {
		id.Subpage = 1
	}
	if err := id.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == Displaying && id == c.current {
		c.mu.Unlock()
		return nil
	}
	c.beginLocked(opGoto, id)
	seq := c.seq
	c.mu.Unlock()

	c.notify()
	go c.resolve(seq, id)
	return nil
}

// GotoNumber navigates to the first subpage of a page number.
func (c *Controller) GotoNumber(number int) error {
	return c.Goto(page.ID(number))
}

// Back moves one entry back in history, re-resolving the target through
// the cache (and network if expired).
func (c *Controller) Back() error {
	c.mu.Lock()
	if len(c.back) == 0 {
		c.mu.Unlock()
		return ErrNoHistory
	}
	id := c.back[len(c.back)-1]
	c.beginLocked(opBack, id)
	seq := c.seq
	c.mu.Unlock()

	c.notify()
	go c.resolve(seq, id)
	return nil
}

// Forward moves one entry forward in history.
func (c *Controller) Forward() error {
	c.mu.Lock()
	if len(c.forward) == 0 {
		c.mu.Unlock()
		return ErrNoHistory
	}
	id := c.forward[len(c.forward)-1]
	c.beginLocked(opForward, id)
	seq := c.seq
	c.mu.Unlock()

	c.notify()
	go c.resolve(seq, id)
	return nil
}

// NextSubpage cycles to the next subpage of the displayed page,
// wrapping to 1 after the last. Cycling is not a visit: it never
// touches history.
func (c *Controller) NextSubpage() error {
	c.mu.Lock()
	if c.state != Displaying || c.pg == nil || c.pg.SubpageCount <= 1 {
		c.mu.Unlock()
		return nil
	}
	next := c.current.Subpage%c.pg.SubpageCount + 1
	id := page.PageId{Number: c.current.Number, Subpage: next}
	c.beginLocked(opSubpage, id)
	seq := c.seq
	c.mu.Unlock()

	c.notify()
	go c.resolve(seq, id)
	return nil
}

// Reload invalidates the cache entry for the current page and re-runs
// the pipeline, always bypassing the cache. After a failed navigation
// it retries the failed target.
func (c *Controller) Reload() error {
	c.mu.Lock()
	id := c.current
	if id.IsZero() {
		id = c.target
	}
	if id.IsZero() {
		c.mu.Unlock()
		return ErrNoHistory
	}
	c.res.Invalidate(id)
	c.beginLocked(opReload, id)
	seq := c.seq
	c.mu.Unlock()

	c.notify()
	go c.resolve(seq, id)
	return nil
}

// beginLocked starts a new operation: any in-flight completion becomes
// stale from this point on.
func (c *Controller) beginLocked(op navOp, id page.PageId) {
	c.seq++
	c.pending = op
	c.target = id
	c.state = Loading
	c.err = nil
}

func (c *Controller) resolve(seq uint64, id page.PageId) {
	pg, err := c.res.Resolve(context.Background(), id)
	c.complete(seq, id, pg, err)
}

func (c *Controller) complete(seq uint64, id page.PageId, pg *page.Page, err error) {
	c.mu.Lock()
	if seq != c.seq {
		// Superseded while in flight. The result is already cached for
		// future use; it just must not be applied to the display.
		c.log.Debug("dropping stale fetch result", "page", id.String())
		c.mu.Unlock()
		return
	}

	if err != nil {
		if c.staleBeatsBrokenLocked(id, err) {
			// A broken refresh of a page we already hold: keep showing
			// the previous good page.
			c.log.Warn("refresh failed, keeping previous page", "page", id.String(), "error", err)
			c.state = Displaying
		} else {
			c.state = Failed
			c.err = err
		}
		c.mu.Unlock()
		c.notify()
		return
	}

	switch c.pending {
	case opGoto:
		// A goto back to the entry id (resetting subpage cycling) is
		// not a new visit and leaves both stacks alone.
		if c.entered != id {
			if !c.entered.IsZero() {
				c.back = append(c.back, c.entered)
			}
			c.forward = nil
		}
		c.entered, c.current = id, id
	case opBack:
		c.back = c.back[:len(c.back)-1]
		c.forward = append(c.forward, c.entered)
		c.entered, c.current = id, id
	case opForward:
		c.forward = c.forward[:len(c.forward)-1]
		c.back = append(c.back, c.entered)
		c.entered, c.current = id, id
	case opSubpage:
		c.current = id
	case opReload:
		if c.current != id {
			// Reload of a never-displayed target behaves like a goto.
			if !c.entered.IsZero() {
				c.back = append(c.back, c.entered)
			}
			c.forward = nil
			c.entered, c.current = id, id
		}
	}

	c.pg = pg
	c.err = nil
	c.state = Displaying
	c.mu.Unlock()
	c.notify()
}

// staleBeatsBrokenLocked reports whether a failed fetch should be
// discarded in favor of the page already on display: only for content
// errors (malformed markup, layout overflow) on a refresh of the page
// number currently held.
func (c *Controller) staleBeatsBrokenLocked(id page.PageId, err error) bool {
	if c.pg == nil || c.pg.ID.Number != id.Number {
		return false
	}
	return errors.Is(err, markup.ErrMalformed) ||
		errors.Is(err, page.ErrLayoutOverflow)
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Snapshot())
}
