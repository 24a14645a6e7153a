package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/config"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(NewFromConfig),
)

// FileStore keeps the original bytes of every uploaded carrier file.
type FileStore interface {
	Save(ctx context.Context, filename string, content []byte) (string, error)
	Open(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

var ErrInvalidKey = errors.New("invalid_storage_key")

type Store struct {
	fs    afero.Fs
	clock clock.Clock
	log   *zap.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func New(fsys afero.Fs, clk clock.Clock, log *zap.Logger) *Store {
	return &Store{
		fs:      fsys,
		clock:   clk,
		log:     log.Named("storage"),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewFromConfig roots the store at UPLOAD_DIR on the local filesystem.
func NewFromConfig(cfg config.Config, clk clock.Clock, log *zap.Logger) (FileStore, error) {
	dir := strings.TrimSpace(cfg.UploadDir)
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), clk, log), nil
}

// Save writes content under uploads/YYYY/MM/<ulid><ext> and returns the key.
// The original filename only contributes its extension.
func (s *Store) Save(_ context.Context, filename string, content []byte) (string, error) {
	now := s.clock.Now()

	s.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("generate file key: %w", err)
	}

	ext := strings.ToLower(path.Ext(filename))
	dir := path.Join("uploads", now.Format("2006"), now.Format("01"))
	key := path.Join(dir, id.String()+ext)

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	if err := afero.WriteFile(s.fs, key, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return key, nil
}

func (s *Store) Open(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, key)
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := s.fs.Remove(key)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err != nil {
		s.log.Debug("stored file already gone", zap.String("key", key))
	}
	return nil
}

func validateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") || path.IsAbs(key) {
		return ErrInvalidKey
	}
	return nil
}
