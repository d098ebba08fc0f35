// Package turn sequences game state between the human and automated players.
//
// A Controller is a small state machine driven by one event-loop goroutine.
// Network calls run on their own goroutines and post their results back to
// the loop, tagged with the generation they were issued in; results from an
// older generation (another game, or a torn-down view) are dropped silently.
package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"termcatan/engine"
	"termcatan/store"
	"termcatan/types"
)

// ThinkingFloor is the minimum time an automated move takes to appear.
const ThinkingFloor = 300 * time.Millisecond

// Phase is the controller state.
type Phase int32

const (
	Idle Phase = iota
	AwaitingInitialLoad
	AwaitingBotMove
	Settled
)

func (p Phase) String() string {
	switch p {
	case AwaitingInitialLoad:
		return "AwaitingInitialLoad"
	case AwaitingBotMove:
		return "AwaitingBotMove"
	case Settled:
		return "Settled"
	}
	return "Idle"
}

var (
	ErrClosed             = errors.New("controller closed")
	ErrReplayMode         = errors.New("replay mode is read-only")
	ErrNotSettled         = errors.New("game state is not settled")
	ErrIllegalAction      = errors.New("action is not currently playable")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// ThinkingDelay returns how much longer to wait before showing a move whose
// request took elapsed, so that it appears no sooner than floor.
func ThinkingDelay(floor, elapsed time.Duration) time.Duration {
	if elapsed >= floor {
		return 0
	}
	return floor - elapsed
}

// Option configures a Controller.
type Option func(*Controller)

// WithReplay freezes the controller: it never submits on its own.
func WithReplay(replay bool) Option {
	return func(c *Controller) { c.replay = replay }
}

// WithThinkingFloor overrides ThinkingFloor.
func WithThinkingFloor(d time.Duration) Option {
	return func(c *Controller) { c.floor = d }
}

// WithClock sets the time source.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithLogger sets the debug logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller drives one game screen.
type Controller struct {
	provider engine.StateProvider
	store    *store.Store
	notifier engine.Notifier
	clock    clock.Clock
	floor    time.Duration
	replay   bool
	log      *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan func()
	done      chan struct{}
	closeOnce sync.Once
	phase     atomic.Int32
	queries   singleflight.Group
	scheduler *Scheduler

	// owned by the loop goroutine. The in-flight sets are keyed by game id
	// and survive Load; an entry clears only when its request returns.
	gameID     string
	stateIndex *int
	generation uint64
	inFlight   map[string]bool
	humanBusy  map[string]bool
	closed     bool
}

// New creates a controller and starts its event loop. Call Close when the
// game screen goes away.
func New(provider engine.StateProvider, st *store.Store, notifier engine.Notifier, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		store:    st,
		notifier: notifier,
		clock:    clock.New(),
		floor:    ThinkingFloor,
		log:      log.New(io.Discard, "", 0),
		events:   make(chan func(), 64),
		done:     make(chan struct{}),
		inFlight:  make(map[string]bool),
		humanBusy: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scheduler = NewScheduler(c.clock)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.run()
	return c
}

// Phase returns the current state.
func (c *Controller) Phase() Phase {
	return Phase(c.phase.Load())
}

// Replay reports whether the controller is frozen.
func (c *Controller) Replay() bool {
	return c.replay
}

// Load opens gameID at stateIndex (nil for latest). Any earlier game's
// pending work is abandoned.
func (c *Controller) Load(gameID string, stateIndex *int) {
	c.post(func() { c.load(gameID, stateIndex) })
}

// Trigger re-evaluates whether an automated player should move now.
// Redundant triggers are coalesced.
func (c *Controller) Trigger() {
	c.post(c.maybeStartBotMove)
}

// Submit sends a human-chosen action. It returns once the request is issued;
// the outcome is installed in the store or reported to the notifier.
func (c *Controller) Submit(action types.Action) error {
	reply := make(chan error, 1)
	if !c.post(func() { reply <- c.submit(action) }) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// Close tears the controller down. Pending delayed installs are cancelled,
// the store is emptied and late results are discarded.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		ack := make(chan struct{})
		if c.post(func() { c.teardown(); close(ack) }) {
			<-ack
		}
		c.cancel()
		close(c.done)
	})
}

func (c *Controller) run() {
	for {
		select {
		case ev := <-c.events:
			ev()
		case <-c.done:
			return
		}
	}
}

func (c *Controller) post(ev func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Controller) setPhase(p Phase) {
	prev := Phase(c.phase.Swap(int32(p)))
	if prev != p {
		c.log.Printf("game %s: %s -> %s", c.gameID, prev, p)
	}
}

func (c *Controller) load(gameID string, stateIndex *int) {
	if c.closed {
		return
	}
	if n := c.scheduler.CancelAll(); n > 0 {
		c.log.Printf("game %s: dropped %d pending install(s)", c.gameID, n)
	}
	c.generation++
	c.gameID = gameID
	c.stateIndex = stateIndex
	c.setPhase(AwaitingInitialLoad)

	gen := c.generation
	key := gameID + "/latest"
	if stateIndex != nil {
		key = fmt.Sprintf("%s/%d", gameID, *stateIndex)
	}
	ch := c.queries.DoChan(key, func() (any, error) {
		return c.provider.QueryState(c.ctx, gameID, stateIndex)
	})
	go func() {
		res := <-ch
		state, _ := res.Val.(*types.BoardState)
		c.post(func() { c.loaded(gen, state, res.Err) })
	}()
}

func (c *Controller) loaded(gen uint64, state *types.BoardState, err error) {
	if c.stale(gen, "state query") {
		return
	}
	if err != nil {
		c.log.Printf("game %s: load failed: %v", c.gameID, err)
		c.notifier.NotifyError(err)
		return
	}
	c.install(state)
	c.maybeStartBotMove()
}

func (c *Controller) maybeStartBotMove() {
	if c.closed || c.replay || c.Phase() != Settled || c.humanBusy[c.gameID] {
		return
	}
	state := c.store.State()
	if state == nil || !state.BotToMove() {
		return
	}
	if c.inFlight[c.gameID] {
		c.log.Printf("game %s: bot move already in flight", c.gameID)
		return
	}
	c.inFlight[c.gameID] = true
	c.setPhase(AwaitingBotMove)

	gen, gameID, start := c.generation, c.gameID, c.clock.Now()
	go func() {
		next, err := c.provider.SubmitAction(c.ctx, gameID, nil)
		c.post(func() { c.botMoved(gen, gameID, start, next, err) })
	}()
}

func (c *Controller) botMoved(gen uint64, gameID string, start time.Time, next *types.BoardState, err error) {
	delete(c.inFlight, gameID)
	if c.stale(gen, "bot move") {
		// a reload may have settled while this request blocked it
		c.maybeStartBotMove()
		return
	}
	if err != nil {
		// stay in AwaitingBotMove; retrying is up to the user
		c.log.Printf("game %s: bot move failed: %v", c.gameID, err)
		c.notifier.NotifyError(err)
		return
	}
	delay := ThinkingDelay(c.floor, c.clock.Since(start))
	if delay <= 0 {
		c.installBotMove(gen, next)
		return
	}
	c.scheduler.After(delay, func() {
		c.post(func() { c.installBotMove(gen, next) })
	})
}

func (c *Controller) installBotMove(gen uint64, next *types.BoardState) {
	if c.stale(gen, "bot move install") {
		return
	}
	c.install(next)
	if !next.IsBot(next.CurrentColor) {
		c.notifier.NotifyTurnChange(next)
	}
	c.maybeStartBotMove()
}

func (c *Controller) submit(action types.Action) error {
	switch {
	case c.closed:
		return ErrClosed
	case c.replay:
		return ErrReplayMode
	case c.humanBusy[c.gameID]:
		return ErrSubmissionInFlight
	case c.Phase() != Settled:
		return ErrNotSettled
	}
	state := c.store.State()
	if state == nil || !state.IsPlayable(action) || state.IsBot(action.Color) {
		return ErrIllegalAction
	}

	gen, gameID := c.generation, c.gameID
	c.humanBusy[gameID] = true
	go func() {
		next, err := c.provider.SubmitAction(c.ctx, gameID, &action)
		c.post(func() { c.submitted(gen, gameID, next, err) })
	}()
	return nil
}

func (c *Controller) submitted(gen uint64, gameID string, next *types.BoardState, err error) {
	delete(c.humanBusy, gameID)
	if c.stale(gen, "human move") {
		c.maybeStartBotMove()
		return
	}
	if err != nil {
		c.log.Printf("game %s: submit failed: %v", c.gameID, err)
		c.notifier.NotifyError(err)
		return
	}
	c.install(next)
	c.maybeStartBotMove()
}

func (c *Controller) install(state *types.BoardState) {
	c.store.Replace(state)
	c.log.Printf("game %s: installed snapshot v%d", c.gameID, c.store.Version())
	c.setPhase(Settled)
}

func (c *Controller) stale(gen uint64, what string) bool {
	if c.closed || gen != c.generation {
		c.log.Printf("dropping stale %s result", what)
		return true
	}
	return false
}

func (c *Controller) teardown() {
	c.closed = true
	c.generation++
	if n := c.scheduler.CancelAll(); n > 0 {
		c.log.Printf("game %s: teardown dropped %d pending install(s)", c.gameID, n)
	}
	c.store.Clear()
	c.setPhase(Idle)
}
