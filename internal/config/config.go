package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/smartpad/internal/util"
)

var log = logging.Logger("config")

const (
	// DefaultDir is the per-user directory holding all launcher state.
	DefaultDir = "~/.smartpad"

	// ConfigFile holds the persisted presentation mode.
	ConfigFile = "config.json"
)

// Config is the persisted launcher state.
type Config struct {
	Mode Mode `json:"mode"`
}

func Default() Config {
	return Config{Mode: Desktop}
}

// ResolveDir expands dir, or DefaultDir when dir is blank.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	return util.ExpandHome(dir)
}

// Store reads and writes Config at a fixed path.
type Store struct {
	Path string
}

// NewStore returns a store for the config file inside dir.
func NewStore(dir string) *Store {
	return &Store{Path: filepath.Join(dir, ConfigFile)}
}

// Load never fails. A missing, unreadable or malformed file yields Default().
func (s *Store) Load() Config {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debugw("config unreadable, using default", "path", s.Path, "err", err)
		}
		return Default()
	}

	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		// If corrupted, treat as absent
		log.Debugw("config malformed, using default", "path", s.Path, "err", err)
		return Default()
	}
	return c
}

// Save writes c, creating the config directory if needed.
func (s *Store) Save(c Config) error {
	if err := util.WriteJSONFile(s.Path, c); err != nil {
		return fmt.Errorf("save config %s: %w", s.Path, err)
	}
	return nil
}
