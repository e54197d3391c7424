package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/types"
)

// Storage is the interface for all record sinks.
type Storage interface {
	// Store persists the records of a dataset, in order.
	Store(ds *types.Dataset) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// TypeFromPath infers the storage type from an output file extension.
// Unknown extensions default to csv.
func TypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".jsonl", ".ndjson":
		return "jsonl"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	default:
		return "csv"
	}
}

// New creates the storage configured by cfg for outputPath.
// An empty cfg.Type is inferred from the outputPath extension. When
// cfg.Mirror is set the result fans out to every backend.
func New(cfg config.StorageConfig, outputPath string, logger *slog.Logger) (Storage, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = TypeFromPath(outputPath)
	}

	primary, err := open(storageType, cfg, outputPath, logger)
	if err != nil {
		return nil, err
	}
	if len(cfg.Mirror) == 0 {
		return primary, nil
	}

	backends := []Storage{primary}
	for _, m := range cfg.Mirror {
		s, err := open(m, cfg, MirrorPath(outputPath, m), logger)
		if err != nil {
			for _, b := range backends {
				b.Close()
			}
			return nil, err
		}
		backends = append(backends, s)
	}
	return NewMultiStorage(backends, logger), nil
}

// MirrorPath swaps the extension of outputPath for the one used by storageType.
func MirrorPath(outputPath, storageType string) string {
	ext, ok := extensions[storageType]
	if !ok {
		return outputPath
	}
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ext
}

var extensions = map[string]string{
	"csv":    ".csv",
	"json":   ".json",
	"jsonl":  ".jsonl",
	"sqlite": ".db",
}

func open(storageType string, cfg config.StorageConfig, outputPath string, logger *slog.Logger) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch storageType {
	case "csv":
		s, err = NewCSVStorage(outputPath, logger)
	case "json":
		s, err = NewJSONStorage(outputPath, logger)
	case "jsonl":
		s, err = NewJSONLStorage(outputPath, logger)
	case "sqlite":
		s, err = NewSQLiteStorage(outputPath, logger)
	case "mongo":
		s, err = NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
	if err != nil {
		return nil, &types.StorageError{Backend: storageType, Err: err}
	}
	return s, nil
}

// Lazy defers opening a backend until the first Store, so a run without
// records leaves no output behind.
type Lazy struct {
	name string
	open func() (Storage, error)

	mu      sync.Mutex
	backend Storage
}

// NewLazy wraps open. name is reported until the backend exists.
func NewLazy(name string, open func() (Storage, error)) *Lazy {
	return &Lazy{name: name, open: open}
}

func (l *Lazy) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.backend != nil {
		return l.backend.Name()
	}
	return l.name
}

func (l *Lazy) Store(ds *types.Dataset) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.backend == nil {
		b, err := l.open()
		if err != nil {
			return err
		}
		l.backend = b
	}
	return l.backend.Store(ds)
}

// Opened reports whether the backend was created.
func (l *Lazy) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend != nil
}

func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.backend == nil {
		return nil
	}
	return l.backend.Close()
}
