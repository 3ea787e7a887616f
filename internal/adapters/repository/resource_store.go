package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/domain/schema"
	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/ports"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

var emptyArray = []byte("[]\n")

var _ ports.ResourceStore = (*ResourceStore)(nil)

// ResourceStore keeps one JSON array per resource key in a flat directory:
//
//	<dataDir>/posts.json
//	<dataDir>/projects.json
//	<dataDir>/tech.json
//
// Nothing is cached. Every Read goes to disk and every WriteAtomic replaces the
// whole file through a temp file and a rename, so readers see either the old
// or the new content. Concurrent writers are last-writer-wins.
type ResourceStore struct {
	dataDir string
	logger  *logger.Logger
}

// NewResourceStore creates a store rooted at dataDir. The directory is not
// touched until EnsureDirectory or Bootstrap runs.
func NewResourceStore(dataDir string, appLogger *logger.Logger) (*ResourceStore, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, entities.ErrEmptyDataDir
	}
	if appLogger == nil {
		appLogger = logger.NewNop()
	}
	return &ResourceStore{
		dataDir: dataDir,
		logger:  appLogger.WithComponent("resource_store"),
	}, nil
}

// DataDir returns the directory holding the resource files.
func (s *ResourceStore) DataDir() string {
	return s.dataDir
}

// EnsureDirectory creates the data directory if it does not exist yet.
func (s *ResourceStore) EnsureDirectory() error {
	if err := os.MkdirAll(s.dataDir, dirPerm); err != nil {
		return &entities.IOError{Op: "mkdir", Path: s.dataDir, Err: err}
	}
	return nil
}

// Path returns the canonical file path of a resource.
func (s *ResourceStore) Path(key entities.ResourceKey) (string, error) {
	if !key.IsValid() {
		return "", &entities.UnknownResourceError{Key: string(key)}
	}
	return s.path(key), nil
}

func (s *ResourceStore) path(key entities.ResourceKey) string {
	return filepath.Join(s.dataDir, key.FileName())
}

// Bootstrap seeds every missing resource file, either from the default source
// named in defaults or, when that is absent or unusable, with an empty array.
// Existing resource files are never replaced.
func (s *ResourceStore) Bootstrap(ctx context.Context, defaults map[entities.ResourceKey]string) error {
	if err := s.EnsureDirectory(); err != nil {
		return err
	}

	for _, key := range entities.AllResourceKeys() {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := s.path(key)
		_, err := os.Stat(target)
		if err == nil {
			s.logger.Debugw("Resource file present, skipping seed", "resource", key, "path", target)
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return &entities.IOError{Op: "stat", Path: target, Err: err}
		}

		data, source := s.seedFor(key, defaults[key])
		if err := writeFileAtomic(s.dataDir, target, data); err != nil {
			return err
		}

		s.logger.Infow("Seeded resource file", "resource", key, "path", target, "source", source)
	}

	return nil
}

func (s *ResourceStore) seedFor(key entities.ResourceKey, source string) ([]byte, string) {
	if strings.TrimSpace(source) == "" {
		return emptyArray, "empty"
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warnw("Default source unreadable, seeding empty array", "resource", key, "source", source, "error", err)
		}
		return emptyArray, "empty"
	}

	if !json.Valid(raw) {
		s.logger.Warnw("Default source is not valid JSON, seeding empty array", "resource", key, "source", source)
		return emptyArray, "empty"
	}

	return raw, source
}

// Read returns the current content of a resource file.
func (s *ResourceStore) Read(ctx context.Context, key entities.ResourceKey) (json.RawMessage, error) {
	if !key.IsValid() {
		return nil, &entities.UnknownResourceError{Key: string(key)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &entities.IOError{Op: "read", Path: path, Err: err}
	}

	var out json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &entities.ParseError{Resource: key, Path: path, Err: err}
	}

	return out, nil
}

// WriteAtomic validates payload and, only if it passes, replaces the resource
// file with it. A rejected payload leaves the filesystem untouched; a failed
// write leaves the previous file in place.
func (s *ResourceStore) WriteAtomic(ctx context.Context, key entities.ResourceKey, payload json.RawMessage, validate schema.Validator) error {
	if !key.IsValid() {
		return &entities.UnknownResourceError{Key: string(key)}
	}
	if validate == nil {
		return fmt.Errorf("write %s: %w", key, entities.ErrNilValidator)
	}
	if err := validate(payload); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodePretty(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	return writeFileAtomic(s.dataDir, s.path(key), data)
}

// HealthCheck reports whether the data directory is usable.
func (s *ResourceStore) HealthCheck() error {
	info, err := os.Stat(s.dataDir)
	if err != nil {
		return &entities.IOError{Op: "stat", Path: s.dataDir, Err: err}
	}
	if !info.IsDir() {
		return &entities.IOError{Op: "stat", Path: s.dataDir, Err: errors.New("not a directory")}
	}
	return nil
}

// encodePretty re-indents a JSON document with two spaces and a trailing
// newline, leaving string contents byte-for-byte intact.
func encodePretty(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(payload), "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a fresh temp file next to path and renames it
// over path. Each call gets its own temp file, so concurrent writers never
// share one.
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &entities.IOError{Op: "create temp", Path: dir, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &entities.IOError{Op: "write temp", Path: tmpName, Err: err}
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return &entities.IOError{Op: "chmod temp", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &entities.IOError{Op: "sync temp", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &entities.IOError{Op: "close temp", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &entities.IOError{Op: "rename", Path: path, Err: err}
	}
	committed = true

	// The rename is already visible; a failed directory sync only weakens
	// durability across a crash.
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// IsTempFile reports whether name is a temp file left by writeFileAtomic.
func IsTempFile(name string) bool {
	return strings.Contains(filepath.Base(name), ".json.tmp-")
}
