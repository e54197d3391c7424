package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"

	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/types"
)

// Middleware processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(rec *types.Record) (*types.Record, error)
}

// Dropper is implemented by middlewares that report a discard reason
// other than their name when they drop a record.
type Dropper interface {
	DropReason() string
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// FromConfig builds a pipeline with the middlewares enabled in cfg.
// Whitespace collapsing runs first so dedup compares normalized text.
func FromConfig(cfg config.PipelineConfig, logger *slog.Logger) *Pipeline {
	p := New(logger)
	if cfg.CollapseWhitespace {
		p.Use(&WhitespaceMiddleware{})
	}
	if cfg.Dedup {
		p.Use(NewDedupMiddleware())
	}
	if cfg.RedactPII {
		p.Use(NewPIIRedactMiddleware(logger))
	}
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
// When a middleware drops the record, the returned reason names why.
func (p *Pipeline) Process(rec types.Record, index int) (*types.Record, string, error) {
	current := &rec

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, "", &types.PipelineError{
				Stage: mw.Name(),
				Index: index,
				Err:   err,
			}
		}
		if result == nil {
			reason := mw.Name()
			if d, ok := mw.(Dropper); ok {
				reason = d.DropReason()
			}
			p.logger.Debug("record dropped", "stage", mw.Name(), "fragment", index)
			return nil, reason, nil
		}
		current = result
	}

	return current, "", nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// DedupMiddleware drops records whose (Author, Content) pair was already seen.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

// DropReason implements Dropper.
func (m *DedupMiddleware) DropReason() string { return ReasonDuplicate }

func (m *DedupMiddleware) Process(rec *types.Record) (*types.Record, error) {
	key := recordKey(rec)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[key]; exists {
		return nil, nil // Drop duplicate
	}
	m.seen[key] = struct{}{}
	return rec, nil
}

// recordKey hashes author and content with a separator that cannot occur in either.
func recordKey(rec *types.Record) string {
	h := sha256.New()
	h.Write([]byte(rec.Author))
	h.Write([]byte{0})
	h.Write([]byte(rec.Content))
	return hex.EncodeToString(h.Sum(nil))
}

// WhitespaceMiddleware collapses runs of whitespace inside Author and Content.
type WhitespaceMiddleware struct{}

func (m *WhitespaceMiddleware) Name() string { return "whitespace" }

func (m *WhitespaceMiddleware) Process(rec *types.Record) (*types.Record, error) {
	rec.Author = strings.Join(strings.Fields(rec.Author), " ")
	rec.Content = strings.Join(strings.Fields(rec.Content), " ")
	return rec, nil
}
