// Package ranking defines leaderboard declarations. Boards are loaded at
// startup from YAML files and drive both the cache key layout and the
// durable aggregation each board's read path falls back to.
package ranking

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studylink-app/studylink/internal/window"
)

// Board declares one leaderboard.
type Board struct {
	// Name is the board identifier used in API paths.
	Name string `yaml:"name"`

	// Namespace prefixes the cache collection: "<namespace>:<windowKey>".
	Namespace string `yaml:"namespace"`

	// SourceEvent is the engagement event type aggregated for this board.
	SourceEvent string `yaml:"source_event"`

	// Window selects daily or weekly key derivation.
	Window window.Policy `yaml:"window"`

	// Limit bounds both the returned ranking and the reseed set.
	Limit int `yaml:"limit"`

	// TTLDays bounds cached collection retention; 0 disables the expiry
	// (weekly boards roll over by key instead).
	TTLDays int `yaml:"ttl_days"`
}

// TTL returns the cache expiry for this board's collections.
func (b Board) TTL() time.Duration {
	return time.Duration(b.TTLDays) * 24 * time.Hour
}

// FileSystemRepository loads boards from *.yaml files in a directory.
// Each file contains exactly one board at the top level. Boards are loaded
// once at startup and cached in memory; no hot reload.
type FileSystemRepository struct {
	dir    string
	boards map[string]Board
}

// NewFileSystemRepository creates a repository and eagerly loads all board
// files from dir. Returns an error if any file is malformed or invalid.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:    dir,
		boards: make(map[string]Board),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no boards directory means zero boards configured
	}
	if err != nil {
		return fmt.Errorf("board dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("board path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading board dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading board file %s: %w", path, err)
		}

		var board Board
		if err := yaml.Unmarshal(data, &board); err != nil {
			return fmt.Errorf("parsing board file %s: %w", path, err)
		}
		if board.Name == "" {
			continue // skip empty / comment-only files
		}

		if err := validateBoard(board); err != nil {
			return fmt.Errorf("board %q: %w", board.Name, err)
		}

		if _, exists := r.boards[board.Name]; exists {
			return fmt.Errorf("board %q: duplicate board name (check multiple YAML files)", board.Name)
		}

		r.boards[board.Name] = board
	}
	return nil
}

func validateBoard(b Board) error {
	if b.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	if strings.Contains(b.Namespace, ":") {
		return fmt.Errorf("namespace %q must not contain ':'", b.Namespace)
	}
	if b.SourceEvent == "" {
		return fmt.Errorf("source_event must not be empty")
	}
	if !b.Window.Valid() {
		return fmt.Errorf("unsupported window %q (must be daily or weekly)", b.Window)
	}
	if b.Limit <= 0 {
		return fmt.Errorf("limit must be > 0")
	}
	if b.TTLDays < 0 {
		return fmt.Errorf("ttl_days must be >= 0")
	}
	return nil
}

// Boards returns all loaded boards.
func (r *FileSystemRepository) Boards() []Board {
	boards := make([]Board, 0, len(r.boards))
	for _, b := range r.boards {
		boards = append(boards, b)
	}
	return boards
}
