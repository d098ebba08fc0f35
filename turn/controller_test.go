package turn

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termcatan/engine"
	"termcatan/store"
	"termcatan/types"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

func newState(current types.Color, bots []types.Color, playable ...types.Action) *types.BoardState {
	return &types.BoardState{
		Colors:                 []types.Color{types.Red, types.Blue, types.Orange},
		CurrentColor:           current,
		BotColors:              bots,
		CurrentPlayableActions: playable,
	}
}

var (
	bots      = []types.Color{types.Blue, types.Orange}
	endTurn   = types.Action{Color: types.Red, Type: types.EndTurn}
	buildNode = types.NewAction(types.Red, types.BuildSettlement, 3)
)

func humanTurn() *types.BoardState {
	return newState(types.Red, bots, endTurn, buildNode)
}

func botTurn(color types.Color) *types.BoardState {
	return newState(color, bots, types.Action{Color: color, Type: types.Roll})
}

type fakeProvider struct {
	mu       sync.Mutex
	clock    *clock.Mock
	latency  time.Duration
	gate     chan struct{}
	states   map[string]*types.BoardState
	results  []*types.BoardState
	queryErr error
	err      error
	queries  int
	submits  []*types.Action
}

func (f *fakeProvider) QueryState(ctx context.Context, gameID string, stateIndex *int) (*types.BoardState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.states[gameID], nil
}

func (f *fakeProvider) SubmitAction(ctx context.Context, gameID string, action *types.Action) (*types.BoardState, error) {
	f.mu.Lock()
	f.submits = append(f.submits, action)
	gate, mock, latency := f.gate, f.clock, f.latency
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if mock != nil && latency > 0 {
		mock.Add(latency)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, errors.New("no more results")
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next, nil
}

func (f *fakeProvider) CreateGame(ctx context.Context, players []engine.PlayerKind) (string, error) {
	return "g1", nil
}

func (f *fakeProvider) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

type recordingNotifier struct {
	mu    sync.Mutex
	turns []*types.BoardState
	errs  []error
}

func (n *recordingNotifier) NotifyTurnChange(state *types.BoardState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.turns = append(n.turns, state)
}

func (n *recordingNotifier) NotifyError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) counts() (turns, errs int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.turns), len(n.errs)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	provider *fakeProvider
	store    *store.Store
	notifier *recordingNotifier
	ctrl     *Controller
}

func newHarness(t *testing.T, provider *fakeProvider, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		provider: provider,
		store:    store.New(),
		notifier: &recordingNotifier{},
	}
	h.ctrl = New(provider, h.store, h.notifier, opts...)
	t.Cleanup(h.ctrl.Close)
	return h
}

// flush waits until every event posted so far has been handled.
func flush(t *testing.T, c *Controller) {
	t.Helper()
	done := make(chan struct{})
	require.True(t, c.post(func() { close(done) }))
	<-done
}

func (h *harness) waitState(t *testing.T, want *types.BoardState) {
	t.Helper()
	require.Eventually(t, func() bool { return h.store.State() == want }, waitFor, tick)
}

func TestThinkingDelay(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    time.Duration
	}{
		{0, 300 * time.Millisecond},
		{50 * time.Millisecond, 250 * time.Millisecond},
		{300 * time.Millisecond, 0},
		{400 * time.Millisecond, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThinkingDelay(ThinkingFloor, tt.elapsed), tt.elapsed)
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "AwaitingBotMove", AwaitingBotMove.String())
	assert.Equal(t, "Settled", Settled.String())
}

func TestLoadSettlesOnHumanTurn(t *testing.T) {
	start := humanTurn()
	h := newHarness(t, &fakeProvider{states: map[string]*types.BoardState{"g1": start}})
	assert.Equal(t, Idle, h.ctrl.Phase())

	h.ctrl.Load("g1", nil)
	h.waitState(t, start)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)
	assert.Zero(t, h.provider.submitCount())
	assert.Equal(t, uint64(1), h.store.Version())
}

func TestFastBotMoveWaitsForFloor(t *testing.T) {
	mock := clock.NewMock()
	start, next := botTurn(types.Blue), humanTurn()
	h := newHarness(t, &fakeProvider{
		clock:   mock,
		latency: 50 * time.Millisecond,
		states:  map[string]*types.BoardState{"g1": start},
		results: []*types.BoardState{next},
	}, WithClock(mock))

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.ctrl.scheduler.Pending() == 1 }, waitFor, tick)
	assert.Same(t, start, h.store.State())
	assert.Equal(t, AwaitingBotMove, h.ctrl.Phase())

	// 50ms of request latency plus 249ms is still under the floor
	mock.Add(249 * time.Millisecond)
	flush(t, h.ctrl)
	assert.Same(t, start, h.store.State())

	mock.Add(time.Millisecond)
	h.waitState(t, next)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)
	turns, errs := h.notifier.counts()
	assert.Equal(t, 1, turns)
	assert.Zero(t, errs)
}

func TestSlowBotMoveInstallsImmediately(t *testing.T) {
	mock := clock.NewMock()
	start, next := botTurn(types.Blue), humanTurn()
	h := newHarness(t, &fakeProvider{
		clock:   mock,
		latency: 400 * time.Millisecond,
		states:  map[string]*types.BoardState{"g1": start},
		results: []*types.BoardState{next},
	}, WithClock(mock))

	h.ctrl.Load("g1", nil)
	h.waitState(t, next)
	assert.Zero(t, h.ctrl.scheduler.Pending())
}

func TestDuplicateTriggersSubmitOnce(t *testing.T) {
	gate := make(chan struct{})
	start, next := botTurn(types.Blue), humanTurn()
	h := newHarness(t, &fakeProvider{
		gate:    gate,
		states:  map[string]*types.BoardState{"g1": start},
		results: []*types.BoardState{next},
	}, WithThinkingFloor(0))

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.provider.submitCount() == 1 }, waitFor, tick)

	h.ctrl.Trigger()
	h.ctrl.Trigger()
	flush(t, h.ctrl)
	assert.Equal(t, 1, h.provider.submitCount())

	close(gate)
	h.waitState(t, next)
	flush(t, h.ctrl)
	assert.Equal(t, 1, h.provider.submitCount())
	assert.Nil(t, h.provider.submits[0], "bot moves carry no action")
}

func TestReloadKeepsBotMoveGuard(t *testing.T) {
	gate := make(chan struct{})
	start, dropped, next := botTurn(types.Blue), humanTurn(), humanTurn()
	h := newHarness(t, &fakeProvider{
		gate:    gate,
		states:  map[string]*types.BoardState{"g1": start},
		results: []*types.BoardState{dropped, next},
	}, WithThinkingFloor(0))

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.provider.submitCount() == 1 }, waitFor, tick)

	// reopening the same game settles but must not race the outstanding request
	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)
	flush(t, h.ctrl)
	assert.Equal(t, 1, h.provider.submitCount())

	// the earlier request returns into the old generation, then the reload moves
	close(gate)
	h.waitState(t, next)
	flush(t, h.ctrl)
	assert.Equal(t, 2, h.provider.submitCount())
	assert.Equal(t, Settled, h.ctrl.Phase())
}

func TestReloadKeepsHumanSubmitGuard(t *testing.T) {
	gate := make(chan struct{})
	next := humanTurn()
	h := newHarness(t, &fakeProvider{
		gate:    gate,
		states:  map[string]*types.BoardState{"g1": humanTurn()},
		results: []*types.BoardState{humanTurn(), next},
	})

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)
	require.NoError(t, h.ctrl.Submit(buildNode))

	h.ctrl.Load("g1", nil)
	flush(t, h.ctrl)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)
	assert.ErrorIs(t, h.ctrl.Submit(endTurn), ErrSubmissionInFlight)
	assert.Equal(t, 1, h.provider.submitCount())

	close(gate)
	require.Eventually(t, func() bool { return h.ctrl.Submit(endTurn) == nil }, waitFor, tick)
	h.waitState(t, next)
	assert.Equal(t, 2, h.provider.submitCount())
}

func TestBotChainNotifiesOnlyForHuman(t *testing.T) {
	start, orange, last := botTurn(types.Blue), botTurn(types.Orange), humanTurn()
	h := newHarness(t, &fakeProvider{
		states:  map[string]*types.BoardState{"g1": start},
		results: []*types.BoardState{orange, last},
	}, WithThinkingFloor(0))

	h.ctrl.Load("g1", nil)
	h.waitState(t, last)
	flush(t, h.ctrl)

	assert.Equal(t, 2, h.provider.submitCount())
	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	require.Len(t, h.notifier.turns, 1)
	assert.Same(t, last, h.notifier.turns[0])
}

func TestFinishedGameStopsBots(t *testing.T) {
	start := botTurn(types.Blue)
	won := botTurn(types.Blue)
	won.WinningColor = types.Blue
	h := newHarness(t, &fakeProvider{
		states:  map[string]*types.BoardState{"g1": start},
		results: []*types.BoardState{won},
	}, WithThinkingFloor(0))

	h.ctrl.Load("g1", nil)
	h.waitState(t, won)
	flush(t, h.ctrl)
	assert.Equal(t, 1, h.provider.submitCount())
	assert.Equal(t, Settled, h.ctrl.Phase())
	turns, _ := h.notifier.counts()
	assert.Zero(t, turns)
}

func TestReplayNeverSubmits(t *testing.T) {
	start := botTurn(types.Blue)
	h := newHarness(t, &fakeProvider{states: map[string]*types.BoardState{"g1": start}}, WithReplay(true))

	idx := 4
	h.ctrl.Load("g1", &idx)
	h.waitState(t, start)
	h.ctrl.Trigger()
	flush(t, h.ctrl)

	assert.Zero(t, h.provider.submitCount())
	assert.Equal(t, Settled, h.ctrl.Phase())
	assert.ErrorIs(t, h.ctrl.Submit(endTurn), ErrReplayMode)
}

func TestQueryErrorNotifies(t *testing.T) {
	boom := errors.New("connection refused")
	h := newHarness(t, &fakeProvider{queryErr: boom})

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { _, errs := h.notifier.counts(); return errs == 1 }, waitFor, tick)
	assert.Nil(t, h.store.State())
	assert.Equal(t, AwaitingInitialLoad, h.ctrl.Phase())
	assert.ErrorIs(t, h.notifier.errs[0], boom)
}

func TestBotErrorLeavesStateAndDoesNotRetry(t *testing.T) {
	start := botTurn(types.Blue)
	h := newHarness(t, &fakeProvider{
		states: map[string]*types.BoardState{"g1": start},
		err:    errors.New("HTTP 500"),
	}, WithThinkingFloor(0))

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { _, errs := h.notifier.counts(); return errs == 1 }, waitFor, tick)
	assert.Same(t, start, h.store.State())
	assert.Equal(t, AwaitingBotMove, h.ctrl.Phase())

	h.ctrl.Trigger()
	flush(t, h.ctrl)
	assert.Equal(t, 1, h.provider.submitCount())
}

func TestCloseCancelsPendingInstall(t *testing.T) {
	mock := clock.NewMock()
	start, next := botTurn(types.Blue), humanTurn()
	h := newHarness(t, &fakeProvider{
		states:  map[string]*types.BoardState{"g1": start},
		results: []*types.BoardState{next},
	}, WithClock(mock))

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.ctrl.scheduler.Pending() == 1 }, waitFor, tick)

	h.ctrl.Close()
	assert.Equal(t, Idle, h.ctrl.Phase())
	assert.Zero(t, h.ctrl.scheduler.Pending())
	assert.Nil(t, h.store.State(), "closing empties the store")

	mock.Add(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, h.store.State(), "the cancelled install never lands")
	assert.ErrorIs(t, h.ctrl.Submit(endTurn), ErrClosed)
}

func TestStaleGameResultIsDropped(t *testing.T) {
	gate := make(chan struct{})
	logs := &syncBuffer{}
	other := humanTurn()
	h := newHarness(t, &fakeProvider{
		gate: gate,
		states: map[string]*types.BoardState{
			"g1": botTurn(types.Blue),
			"g2": other,
		},
		results: []*types.BoardState{humanTurn()},
	}, WithThinkingFloor(0), WithLogger(log.New(logs, "", 0)))

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.provider.submitCount() == 1 }, waitFor, tick)

	h.ctrl.Load("g2", nil)
	h.waitState(t, other)

	close(gate)
	require.Eventually(t, func() bool { return bytes.Contains([]byte(logs.String()), []byte("dropping stale")) }, waitFor, tick)
	flush(t, h.ctrl)

	assert.Same(t, other, h.store.State())
	turns, errs := h.notifier.counts()
	assert.Zero(t, turns)
	assert.Zero(t, errs)
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t, &fakeProvider{states: map[string]*types.BoardState{"g1": humanTurn()}})
	assert.ErrorIs(t, h.ctrl.Submit(endTurn), ErrNotSettled)

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)

	assert.ErrorIs(t, h.ctrl.Submit(types.NewAction(types.Red, types.BuildCity, 9)), ErrIllegalAction)
	assert.ErrorIs(t, h.ctrl.Submit(types.Action{Color: types.Blue, Type: types.Roll}), ErrIllegalAction)
	assert.Zero(t, h.provider.submitCount())
}

func TestHumanSubmit(t *testing.T) {
	gate := make(chan struct{})
	next := humanTurn()
	h := newHarness(t, &fakeProvider{
		gate:    gate,
		states:  map[string]*types.BoardState{"g1": humanTurn()},
		results: []*types.BoardState{next},
	})

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)

	require.NoError(t, h.ctrl.Submit(buildNode))
	assert.ErrorIs(t, h.ctrl.Submit(endTurn), ErrSubmissionInFlight)

	close(gate)
	h.waitState(t, next)
	require.Equal(t, 1, h.provider.submitCount())
	assert.True(t, h.provider.submits[0].Equal(buildNode))
}

func TestHumanSubmitErrorNotifies(t *testing.T) {
	start := humanTurn()
	h := newHarness(t, &fakeProvider{
		states: map[string]*types.BoardState{"g1": start},
		err:    errors.New("HTTP 400"),
	})

	h.ctrl.Load("g1", nil)
	require.Eventually(t, func() bool { return h.ctrl.Phase() == Settled }, waitFor, tick)
	require.NoError(t, h.ctrl.Submit(endTurn))
	require.Eventually(t, func() bool { _, errs := h.notifier.counts(); return errs == 1 }, waitFor, tick)
	assert.Same(t, start, h.store.State())

	// the guard clears so the player can try again
	flush(t, h.ctrl)
	assert.NoError(t, h.ctrl.Submit(endTurn))
}
