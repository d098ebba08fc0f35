package config

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/adrg/xdg"

	"termcatan/engine"
	"termcatan/types"
)

var (
	cfgFile = "termcatan/config.json"
	logFile = "termcatan/debug.log"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

// ConfigColors are 256-color palette indices.
type ConfigColors struct {
	Players   map[types.Color]int `json:"players"`
	Resources map[string]int      `json:"resources"`
	Water     int                 `json:"water"`
	Desert    int                 `json:"desert"`
	Port      int                 `json:"port"`
	Number    int                 `json:"number"`
	Highlight int                 `json:"highlight"`
	CursorFG  int                 `json:"cursor_fg"`
	CursorBG  int                 `json:"cursor_bg"`
	Robber    int                 `json:"robber"`
}

type ConfigSymbols struct {
	Settlement rune `json:"settlement"`
	City       rune `json:"city"`
	EmptyNode  rune `json:"empty_node"`
	Clickable  rune `json:"clickable"`
	Road       rune `json:"road"`
	Robber     rune `json:"robber"`
}

type Theme struct {
	DrawTileBackground bool          `json:"draw_tile_bg"`
	ShowNodeIDs        bool          `json:"show_node_ids"`
	Colors             ConfigColors  `json:"colors"`
	Symbols            ConfigSymbols `json:"symbols"`
}

// ServerConfig points at the game server.
type ServerConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout is the per-request deadline; zero means none.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// GameSettings holds defaults for new games.
type GameSettings struct {
	Players         []string    `json:"players"`
	Viewer          types.Color `json:"viewer"`
	ThinkingFloorMS int         `json:"thinking_floor_ms"`
}

// ThinkingFloor converts the configured floor.
func (g GameSettings) ThinkingFloor() time.Duration {
	return time.Duration(g.ThinkingFloorMS) * time.Millisecond
}

// PlayerKinds parses the configured seats.
func (g GameSettings) PlayerKinds() ([]engine.PlayerKind, error) {
	return engine.ParsePlayerKinds(g.Players)
}

type Config struct {
	Server ServerConfig `json:"server"`
	Game   GameSettings `json:"game"`
	Theme  Theme        `json:"theme"`
}

func InitConfig() (*Config, error) {
	config := DefaultConfig()
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err == nil {
		if err := readCfgFile(absPath, config); err != nil {
			return nil, err
		}
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return &InvalidConfig{"server url must not be empty"}
	}
	if c.Server.TimeoutSeconds < 0 {
		return &InvalidConfig{"server timeout must not be negative"}
	}
	if c.Game.ThinkingFloorMS < 0 {
		return &InvalidConfig{"thinking floor must not be negative"}
	}
	if _, err := c.Game.PlayerKinds(); err != nil {
		return &InvalidConfig{err.Error()}
	}
	s := c.Theme.Symbols
	for _, r := range []rune{s.Settlement, s.City, s.EmptyNode, s.Clickable, s.Road, s.Robber} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	return nil
}

// Save writes c to the user config file, creating its directory.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

// OpenDebugLog opens the debug log under the XDG state directory.
// If the file cannot be created the logger discards everything.
func OpenDebugLog(prefix string) (*log.Logger, io.Closer) {
	absPath, err := xdg.StateFile(logFile)
	if err != nil {
		return log.New(io.Discard, prefix, 0), io.NopCloser(nil)
	}
	f, err := os.OpenFile(absPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(io.Discard, prefix, 0), io.NopCloser(nil)
	}
	return log.New(f, prefix, log.LstdFlags|log.Lmicroseconds), f
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, a); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return nil
}
