package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/cache"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/world"
	"go.uber.org/zap"
)

var (
	// ErrNoResults means the filter matched nothing. No cache entry is
	// written, so a follow-up page command will miss.
	ErrNoResults = errors.New("lookup: no results")
	// ErrNoPreviousLookup means the actor asked for a page without a
	// prior lookup.
	ErrNoPreviousLookup = errors.New("lookup: no previous lookup to page")
	// ErrPageOutOfRange means the requested page exceeds the cached total.
	ErrPageOutOfRange = errors.New("lookup: page out of range")
)

// Query kinds kept in the pagination cache.
const (
	KindLookup      = "lookup"
	KindNear        = "near"
	KindBlock       = "block"
	KindTransaction = "transaction"
)

// Action sets behind the block/transaction shortcuts. The tokens are
// static, so a parse failure is a programming error.
var (
	blockActions     = mustActions("block")
	containerActions = mustActions("container")
)

func mustActions(token string) []action.Action {
	acts, err := action.ParseAll([]string{token})
	if err != nil {
		panic(err)
	}
	return acts
}

// Result is one page of history plus the pagination bookkeeping.
type Result struct {
	Rows  []store.LookupRow `json:"rows"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Pages int               `json:"pages"`
	Lines int               `json:"lines"`
}

// cacheEntry reconstructs an identical query for "show page N". The anchor
// time is frozen so paging never drifts as real time advances.
type cacheEntry struct {
	Kind       string             `json:"kind"`
	Filter     store.Filter       `json:"filter"`
	Anchor     *world.Vec3        `json:"anchor,omitempty"`
	BBox       *world.BoundingBox `json:"bbox,omitempty"`
	AnchorTime time.Time          `json:"anchor_time"`
	Total      int64              `json:"total"`
	Lines      int                `json:"lines"`
}

// Service executes filtered history queries and remembers each actor's
// last one so follow-up page commands work without re-specifying filters.
type Service struct {
	store  *store.LogStore
	cache  cache.Cache
	limits store.Limits
	lines  int
	logger *zap.Logger
}

// New creates a lookup Service. lines is the default page size.
func New(st *store.LogStore, c cache.Cache, limits store.Limits, lines int, logger *zap.Logger) *Service {
	if lines < 1 {
		lines = 4
	}
	return &Service{store: st, cache: c, limits: limits, lines: lines, logger: logger}
}

// Lookup runs a filtered query for the actor and caches it for paging.
func (s *Service) Lookup(ctx context.Context, actorKey string, f store.Filter, anchor *world.Vec3, lines int) (*Result, error) {
	bbox, err := f.Resolve(anchor, s.limits)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, actorKey, KindLookup, f, anchor, bbox, time.Now(), lines, 1)
}

// NearLog reports recent changes around a position. A non-positive
// radius falls back to the configured default.
func (s *Service) NearLog(ctx context.Context, actorKey, worldName string, pos world.Vec3, radius int) (*Result, error) {
	f := store.Filter{World: worldName}
	if radius > 0 {
		f.Radius = &radius
	}
	bbox, err := f.Resolve(&pos, s.limits)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, actorKey, KindNear, f, &pos, bbox, time.Now(), s.lines, 1)
}

// BlockLog reports the full history of one block position.
func (s *Service) BlockLog(ctx context.Context, actorKey, worldName string, pos world.Vec3) (*Result, error) {
	f := store.Filter{World: worldName, Actions: blockActions}
	bbox := &world.BoundingBox{Min: pos, Max: pos}
	return s.run(ctx, actorKey, KindBlock, f, &pos, bbox, time.Now(), s.lines, 1)
}

// TransactionLog reports container traffic at one position within the
// given seconds-ago window (0 = all time).
func (s *Service) TransactionLog(ctx context.Context, actorKey, worldName string, pos world.Vec3, since int64) (*Result, error) {
	f := store.Filter{World: worldName, Actions: containerActions, Since: since}
	bbox := &world.BoundingBox{Min: pos, Max: pos}
	return s.run(ctx, actorKey, KindTransaction, f, &pos, bbox, time.Now(), s.lines, 1)
}

// Page re-issues the actor's cached query with a new LIMIT/OFFSET.
// lines <= 0 keeps the cached page size.
func (s *Service) Page(ctx context.Context, actorKey string, page, lines int) (*Result, error) {
	entry, err := s.load(ctx, actorKey)
	if err != nil {
		return nil, err
	}
	if lines <= 0 {
		lines = entry.Lines
	}
	if page < 1 {
		return nil, ErrPageOutOfRange
	}
	offset := (page - 1) * lines
	if int64(offset) >= entry.Total {
		return nil, ErrPageOutOfRange
	}
	return s.run(ctx, actorKey, entry.Kind, entry.Filter, entry.Anchor, entry.BBox, entry.AnchorTime, lines, page)
}

func (s *Service) run(ctx context.Context, actorKey, kind string, f store.Filter, anchor *world.Vec3, bbox *world.BoundingBox, at time.Time, lines, page int) (*Result, error) {
	if lines < 1 {
		lines = s.lines
	}
	offset := (page - 1) * lines
	rows, total, err := s.store.Lookup(ctx, f, bbox, at, lines, offset)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrNoResults
	}
	entry := cacheEntry{
		Kind:       kind,
		Filter:     f,
		Anchor:     anchor,
		BBox:       bbox,
		AnchorTime: at,
		Total:      total,
		Lines:      lines,
	}
	if err := s.save(ctx, actorKey, entry); err != nil {
		// A stale page cache is annoying, not fatal.
		s.logger.Warn("lookup cache write failed",
			zap.String("actor", actorKey), zap.Error(err))
	}
	pages := int((total + int64(lines) - 1) / int64(lines))
	return &Result{Rows: rows, Total: total, Page: page, Pages: pages, Lines: lines}, nil
}

func cacheKey(actorKey string) string {
	return "chronicle:lookup:" + strings.ToLower(actorKey)
}

func (s *Service) save(ctx context.Context, actorKey string, e cacheEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("lookup: encode cache entry: %w", err)
	}
	return s.cache.Set(ctx, cacheKey(actorKey), string(raw), 0)
}

func (s *Service) load(ctx context.Context, actorKey string) (*cacheEntry, error) {
	raw, err := s.cache.Get(ctx, cacheKey(actorKey))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNoPreviousLookup
		}
		return nil, err
	}
	var e cacheEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("lookup: decode cache entry: %w", err)
	}
	return &e, nil
}
