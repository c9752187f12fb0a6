package plan

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/optdesk/internal/storage/archive"
)

// ArchiveStore journals entries as JSON lines, one file per day under
// prefix. Each Save rewrites that day's file.
type ArchiveStore struct {
	storage archive.Storage
	prefix  string
	loc     *time.Location
	mu      sync.Mutex
}

// NewArchiveStore creates a journal under prefix (default "plans"). Day
// files are partitioned in loc.
func NewArchiveStore(storage archive.Storage, prefix string, loc *time.Location) *ArchiveStore {
	if prefix == "" {
		prefix = "plans"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ArchiveStore{storage: storage, prefix: strings.TrimSuffix(prefix, "/"), loc: loc}
}

func (a *ArchiveStore) dayPath(t time.Time) string {
	return path.Join(a.prefix, t.In(a.loc).Format("2006-01-02")+".jsonl")
}

// Save appends e to its day file.
func (a *ArchiveStore) Save(ctx context.Context, e Entry) (Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	line, err := json.Marshal(e)
	if err != nil {
		return e, fmt.Errorf("encoding plan entry: %w", err)
	}

	p := a.dayPath(e.RecordedAt)
	existing, err := a.storage.Read(ctx, p)
	if err != nil && !errors.Is(err, archive.ErrNotFound) {
		return e, fmt.Errorf("reading journal %s: %w", p, err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')

	if err := a.storage.Write(ctx, p, buf.Bytes()); err != nil {
		return e, fmt.Errorf("writing journal %s: %w", p, err)
	}
	return e, nil
}

// GetByID scans all day files for id.
func (a *ArchiveStore) GetByID(ctx context.Context, id string) (*Entry, error) {
	entries, err := a.load(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, ErrNotFound
}

// List returns matching entries across day files.
func (a *ArchiveStore) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	entries, err := a.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return filter.page(entries), nil
}

// Count returns the count of matching entries.
func (a *ArchiveStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	entries, err := a.load(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// load reads the day files overlapping the filter window. Malformed lines
// are skipped.
func (a *ArchiveStore) load(ctx context.Context, filter ListFilter) ([]Entry, error) {
	paths, err := a.storage.List(ctx, a.prefix)
	if err != nil {
		return nil, fmt.Errorf("listing journal: %w", err)
	}
	sort.Strings(paths)

	var from, to string
	if !filter.From.IsZero() {
		from = filter.From.In(a.loc).Format("2006-01-02")
	}
	if !filter.To.IsZero() {
		to = filter.To.In(a.loc).Format("2006-01-02")
	}

	var result []Entry
	for _, p := range paths {
		day := strings.TrimSuffix(path.Base(p), ".jsonl")
		if !strings.HasSuffix(p, ".jsonl") || (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		data, err := a.storage.Read(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("reading journal %s: %w", p, err)
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			var e Entry
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				continue
			}
			if filter.matches(e) {
				result = append(result, e)
			}
		}
	}
	return result, nil
}

var _ Store = (*ArchiveStore)(nil)
