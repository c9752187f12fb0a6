// Package state persists TradeDayState records as one JSON document keyed
// by trading date.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/storage/archive"
	"go.uber.org/zap"
)

// DateLayout is the document key format.
const DateLayout = "2006-01-02"

// DefaultPath is the document path within the archive backend.
const DefaultPath = "trade_state.json"

// Document maps YYYY-MM-DD to that day's record.
type Document map[string]core.TradeDayState

// Key returns the document key for t in loc.
func Key(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// Day returns the record for key, or the zero (Idle) record.
func (d Document) Day(key string) core.TradeDayState {
	return d[key]
}

// Keys returns the document dates in ascending order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store loads and saves the whole document. Callers serialize access; the
// read-modify-write cycle is not atomic across processes.
type Store interface {
	// Load returns the document. A missing document is empty with no error.
	// An unreadable document is returned empty with an error matching
	// core.ErrStateCorrupt so the caller can proceed as Idle.
	Load(ctx context.Context) (Document, error)
	// Save replaces the document.
	Save(ctx context.Context, doc Document) error
}

// ArchiveStore keeps the document on an archive backend.
type ArchiveStore struct {
	storage archive.Storage
	path    string
	logger  *zap.Logger
}

// NewArchiveStore creates a store writing to path on storage.
func NewArchiveStore(storage archive.Storage, path string, logger ...*zap.Logger) *ArchiveStore {
	if path == "" {
		path = DefaultPath
	}
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &ArchiveStore{storage: storage, path: path, logger: l}
}

// Load reads and decodes the document.
func (s *ArchiveStore) Load(ctx context.Context) (Document, error) {
	data, err := s.storage.Read(ctx, s.path)
	if errors.Is(err, archive.ErrNotFound) {
		return Document{}, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("reading state: %w", err))
	}
	if len(data) == 0 {
		return Document{}, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("state document unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		return Document{}, core.WrapError(core.ErrStateCorrupt, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Save encodes the document with indentation and replaces it.
func (s *ArchiveStore) Save(ctx context.Context, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := s.storage.Write(ctx, s.path, data); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

// MemoryStore keeps the document in memory. Saves copy the map so later
// mutation by the caller is not visible.
type MemoryStore struct {
	mu    sync.Mutex
	doc   Document
	saves int
}

// NewMemoryStore creates a store seeded with doc.
func NewMemoryStore(doc Document) *MemoryStore {
	return &MemoryStore{doc: clone(doc)}
}

func (m *MemoryStore) Load(ctx context.Context) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.doc), nil
}

func (m *MemoryStore) Save(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = clone(doc)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

var (
	_ Store = (*ArchiveStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
