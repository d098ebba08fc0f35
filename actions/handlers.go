package actions

import (
	"errors"
	"sync"

	"termcatan/types"
)

// ErrNotClickable is returned for clicks on nodes outside the current clickable map.
var ErrNotClickable = errors.New("node is not clickable")

// Submitter sends a human-chosen action to the game.
type Submitter func(types.Action) error

type handlerKey struct {
	nodeID     int
	actionType types.ActionType
}

// Handler is the stable click handler of one (node, action type) pair.
type Handler struct {
	NodeID int
	Action types.Action
	cache  *HandlerCache
}

// Fire submits the handler's action unless the clickable map has moved on.
func (h *Handler) Fire() error {
	if !h.cache.live(h) {
		return ErrNotClickable
	}
	return h.cache.submit(h.Action)
}

// HandlerCache hands out one Handler per (node id, action type) and drops
// them all whenever the clickable-node map changes.
type HandlerCache struct {
	mu       sync.Mutex
	submit   Submitter
	nodes    map[int]types.Action
	handlers map[handlerKey]*Handler
}

// NewHandlerCache creates an empty cache that submits through submit.
func NewHandlerCache(submit Submitter) *HandlerCache {
	return &HandlerCache{
		submit:   submit,
		nodes:    make(map[int]types.Action),
		handlers: make(map[handlerKey]*Handler),
	}
}

// Update installs a freshly computed clickable-node map.
// It returns true if the map differed and handlers were invalidated.
func (c *HandlerCache) Update(nodes map[int]types.Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if Equal(c.nodes, nodes) {
		return false
	}
	c.nodes = make(map[int]types.Action, len(nodes))
	for id, a := range nodes {
		c.nodes[id] = a
	}
	c.handlers = make(map[handlerKey]*Handler)
	return true
}

// Handler returns the click handler for nodeID, or false if it is not clickable.
func (c *HandlerCache) Handler(nodeID int) (*Handler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	action, ok := c.nodes[nodeID]
	if !ok {
		return nil, false
	}
	key := handlerKey{nodeID: nodeID, actionType: action.Type}
	h, ok := c.handlers[key]
	if !ok {
		h = &Handler{NodeID: nodeID, Action: action, cache: c}
		c.handlers[key] = h
	}
	return h, true
}

// Click fires the handler of nodeID. Clicks on non-clickable nodes are
// rejected without reaching the submitter.
func (c *HandlerCache) Click(nodeID int) error {
	h, ok := c.Handler(nodeID)
	if !ok {
		return ErrNotClickable
	}
	return h.Fire()
}

// Clickable returns whether nodeID is in the current map.
func (c *HandlerCache) Clickable(nodeID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.nodes[nodeID]
	return ok
}

// Nodes returns the ids of the clickable nodes.
func (c *HandlerCache) Nodes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	return ids
}

func (c *HandlerCache) live(h *Handler) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers[handlerKey{nodeID: h.NodeID, actionType: h.Action.Type}] == h
}
