package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/feedpulse/internal/types"
)

//go:embed schema.sql
var schema string

// --- SQLite Storage ---

// SQLiteStorage writes records to a local SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex
	counts map[string]int // records stored per run
	total  int
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an in-memory database.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return newSQLiteStorage(db, path, logger), nil
}

func newSQLiteStorage(db *sql.DB, path string, logger *slog.Logger) *SQLiteStorage {
	return &SQLiteStorage{
		db:     db,
		path:   path,
		counts: make(map[string]int),
		now:    time.Now,
		logger: logger.With("component", "sqlite_storage"),
	}
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

// DB exposes the underlying handle for queries.
func (s *SQLiteStorage) DB() *sql.DB { return s.db }

func (s *SQLiteStorage) Store(ds *types.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts
		(run_id, position, author, content, sentiment, timestamp, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	offset := s.counts[ds.RunID]
	scrapedAt := s.now().UTC().Format(time.RFC3339)
	for i, rec := range ds.Records {
		_, err := stmt.ExecContext(ctx,
			ds.RunID, offset+i, rec.Author, rec.Content, rec.Sentiment.String(), rec.Timestamp, scrapedAt)
		if err != nil {
			return fmt.Errorf("sqlite insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}

	s.counts[ds.RunID] = offset + ds.Len()
	s.total += ds.Len()
	s.logger.Debug("records stored in sqlite", "count", ds.Len(), "total", s.total)
	return nil
}

// Load reads back the records of one run in position order.
func (s *SQLiteStorage) Load(ctx context.Context, runID string) (*types.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT author, content, sentiment, timestamp FROM posts WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	ds := &types.Dataset{RunID: runID}
	for rows.Next() {
		var (
			rec   types.Record
			label string
		)
		if err := rows.Scan(&rec.Author, &rec.Content, &label, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		if rec.Sentiment, err = types.ParseSentiment(label); err != nil {
			return nil, err
		}
		ds.Append(rec)
	}
	return ds, rows.Err()
}

// RunInfo describes one stored run.
type RunInfo struct {
	RunID     string `json:"run_id"`
	Records   int    `json:"records"`
	ScrapedAt string `json:"scraped_at"`
}

// Runs lists stored runs, most recent first.
func (s *SQLiteStorage) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, COUNT(*), MIN(scraped_at)
		FROM posts GROUP BY run_id ORDER BY MIN(scraped_at) DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.RunID, &r.Records, &r.ScrapedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "path", s.path, "total_records", s.total)
	return s.db.Close()
}

// --- MongoDB Storage ---

// MongoStorage writes records to a MongoDB collection.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(ds *types.Dataset) error {
	if ds.Len() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.collection.InsertMany(ctx, mongoDocs(ds, s.count, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}

	s.count += ds.Len()
	s.logger.Debug("records stored in mongodb", "count", ds.Len(), "total", s.count)
	return nil
}

// mongoDocs converts records to documents. The sentiment is stored by label.
func mongoDocs(ds *types.Dataset, offset int, scrapedAt time.Time) []any {
	docs := make([]any, ds.Len())
	for i, rec := range ds.Records {
		docs[i] = bson.D{
			{Key: "run_id", Value: ds.RunID},
			{Key: "position", Value: offset + i},
			{Key: "author", Value: rec.Author},
			{Key: "content", Value: rec.Content},
			{Key: "sentiment", Value: rec.Sentiment.String()},
			{Key: "timestamp", Value: rec.Timestamp},
			{Key: "scraped_at", Value: scrapedAt},
		}
	}
	return docs
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes records to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) Store(ds *types.Dataset) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(ds); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = &types.StorageError{Backend: backend.Name(), Err: err}
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			if firstErr == nil {
				firstErr = &types.StorageError{Backend: backend.Name(), Err: err}
			}
		}
	}
	return firstErr
}
