// Package fs stores avatar frames on the local filesystem, one directory per
// user id.
package fs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/itchan-dev/anniv/backend/internal/service"
	"github.com/itchan-dev/anniv/shared/domain"
)

type Storage struct {
	rootPath string
	baseURL  string
}

// Ensure Storage implements the interfaces at compile time.
var (
	_ service.AssetStore   = (*Storage)(nil)
	_ service.GCAssetStore = (*Storage)(nil)
)

// New creates the root directory if needed. baseURL is the public prefix the
// root is served under, e.g. "/assets".
func New(rootPath, baseURL string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Storage) Root() string {
	return s.rootPath
}

func userDir(userId domain.UserId) string {
	return strconv.FormatInt(userId, 10)
}

// Prepare creates the user directory.
func (s *Storage) Prepare(ctx context.Context, userId domain.UserId) error {
	dir := filepath.Join(s.rootPath, userDir(userId))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}
	return nil
}

// Save writes a frame as <user id>/<frame>.png and returns that relative path.
// Data goes to a temporary file first and is renamed into place, so a reader
// never sees a half-written frame.
func (s *Storage) Save(ctx context.Context, userId domain.UserId, frame int, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	relativePath := path.Join(userDir(userId), domain.FrameName(frame))
	fullPath := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	tmpPath := filepath.Join(filepath.Dir(fullPath), ".tmp-"+uuid.NewString())

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath) // Best effort
		return "", fmt.Errorf("failed to write frame: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move frame into place: %w", err)
	}
	return relativePath, nil
}

// RemoveUser deletes the user directory with everything in it. A missing
// directory is not an error.
func (s *Storage) RemoveUser(ctx context.Context, userId domain.UserId) error {
	if err := os.RemoveAll(filepath.Join(s.rootPath, userDir(userId))); err != nil {
		return fmt.Errorf("failed to delete user directory: %w", err)
	}
	return nil
}

// URL maps a relative path returned by Save to its public URI.
func (s *Storage) URL(relativePath string) string {
	return s.baseURL + "/" + strings.TrimLeft(relativePath, "/")
}

// WalkUsers lists user directories under the root. Entries whose name is not
// a user id are ignored.
func (s *Storage) WalkUsers(ctx context.Context) ([]service.AssetDir, error) {
	entries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	var dirs []service.AssetDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		dirs = append(dirs, service.AssetDir{UserId: id, ModTime: info.ModTime()})
	}
	return dirs, nil
}
