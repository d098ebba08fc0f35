// Package catanapi implements engine.StateProvider against the game server's JSON API.
package catanapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"termcatan/engine"
	"termcatan/types"
)

var debugLog = log.New(io.Discard, "catanapi ", log.Ltime|log.Lmicroseconds)

// SetDebugLog redirects request logging.
func SetDebugLog(l *log.Logger) {
	if l != nil {
		debugLog = l
	}
}

// ErrGameNotFound matches a 404 from any game route.
var ErrGameNotFound = errors.New("game not found")

// StatusError is a non-2xx reply.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Code, body)
}

// Is lets errors.Is(err, ErrGameNotFound) match 404 replies.
func (e *StatusError) Is(target error) bool {
	return target == ErrGameNotFound && e.Code == http.StatusNotFound
}

// Client talks to one game server.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ engine.StateProvider = (*Client)(nil)

// NewClient creates a client for the server at baseURL.
// A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// QueryState fetches the latest snapshot, or the one at stateIndex.
func (c *Client) QueryState(ctx context.Context, gameID string, stateIndex *int) (*types.BoardState, error) {
	index := "latest"
	if stateIndex != nil {
		index = strconv.Itoa(*stateIndex)
	}
	var state types.BoardState
	path := fmt.Sprintf("/api/games/%s/states/%s", url.PathEscape(gameID), index)
	if err := c.do(ctx, http.MethodGet, path, nil, &state); err != nil {
		return nil, fmt.Errorf("failed to query state: %w", err)
	}
	return &state, nil
}

// SubmitAction posts action, or an empty body to let the current bot play.
func (c *Client) SubmitAction(ctx context.Context, gameID string, action *types.Action) (*types.BoardState, error) {
	var body any
	if action != nil {
		body = action
	}
	var state types.BoardState
	path := fmt.Sprintf("/api/games/%s/actions", url.PathEscape(gameID))
	if err := c.do(ctx, http.MethodPost, path, body, &state); err != nil {
		return nil, fmt.Errorf("failed to submit action: %w", err)
	}
	return &state, nil
}

// CreateGame starts a new game and returns its id.
func (c *Client) CreateGame(ctx context.Context, players []engine.PlayerKind) (string, error) {
	req := struct {
		Players []engine.PlayerKind `json:"players"`
	}{Players: players}
	var resp struct {
		GameID string `json:"game_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/games", req, &resp); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	if resp.GameID == "" {
		return "", errors.New("failed to create game: empty game id")
	}
	return resp.GameID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		debugLog.Printf("%s %s: %v", method, fullURL, err)
		return err
	}
	defer resp.Body.Close()
	debugLog.Printf("%s %s: %d in %s", method, fullURL, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, URL: fullURL, Code: resp.StatusCode, Body: string(data)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
