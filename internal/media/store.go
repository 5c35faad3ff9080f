package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/utils"
)

// Store writes generated media (avatars, exports) under a local root
// directory and serves it back by relative key. Keys are slash-separated and
// never escape the root.
type Store interface {
	Save(key string, data []byte) (string, error)
	Open(key string) ([]byte, error)
	Delete(key string) error
	PublicPath(key string) string
}

type localStore struct {
	log  *logger.Logger
	root string
}

func NewLocalStore(log *logger.Logger) (Store, error) {
	root := utils.GetEnv("MEDIA_ROOT", "media", log)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root %q: %w", root, err)
	}
	return &localStore{
		log:  log.With("component", "MediaStore"),
		root: root,
	}, nil
}

func (s *localStore) resolve(key string) (string, error) {
	key = strings.TrimPrefix(filepath.ToSlash(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *localStore) Save(key string, data []byte) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	s.log.Debug("media saved", "key", key, "bytes", len(data))
	return key, nil
}

func (s *localStore) Open(key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *localStore) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PublicPath is the URL path the media handler serves the key under.
func (s *localStore) PublicPath(key string) string {
	return "/media/" + strings.TrimPrefix(key, "/")
}
