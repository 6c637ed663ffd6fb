package loadout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/eorzealink/server/audit"
	"github.com/eorzealink/server/cache"
	"github.com/eorzealink/server/glamour"
	"github.com/eorzealink/server/model"
	"github.com/eorzealink/server/ownership"
	"github.com/eorzealink/server/proxy"
	"github.com/eorzealink/server/resolver"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoPreview means apply was requested before any preview resolved rows.
var ErrNoPreview = errors.New("loadout: no preview to apply")

// Snapshot is the state the display surface polls. It is replaced as a
// whole on every update so readers never observe a half-written preview.
type Snapshot struct {
	Loading   bool                `json:"loading"`
	Status    string              `json:"status"`
	URL       string              `json:"url"`
	Title     string              `json:"title"`
	Author    string              `json:"author"`
	Rows      []model.ResolvedRow `json:"rows"`
	Dropped   int                 `json:"dropped"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Service runs the preview and apply pipelines.
type Service struct {
	proxy    *proxy.Client
	resolver *resolver.Resolver
	owners   *ownership.Aggregator
	patcher  *glamour.Patcher
	cache    cache.Cache
	audit    *audit.Service
	db       *gorm.DB
	cacheTTL time.Duration
	logger   *zap.Logger

	snap atomic.Pointer[Snapshot]
}

// New wires the pipeline.
func New(
	p *proxy.Client,
	r *resolver.Resolver,
	o *ownership.Aggregator,
	g *glamour.Patcher,
	c cache.Cache,
	a *audit.Service,
	db *gorm.DB,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Service {
	svc := &Service{
		proxy:    p,
		resolver: r,
		owners:   o,
		patcher:  g,
		cache:    c,
		audit:    a,
		db:       db,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
	svc.snap.Store(&Snapshot{Status: "no preview yet"})
	return svc
}

// Snapshot returns the current preview state.
func (s *Service) Snapshot() *Snapshot {
	return s.snap.Load()
}

// BeginPreview publishes a loading snapshot and runs the preview pipeline
// in the background. Overlapping previews are tolerated; the last one to
// finish owns the snapshot.
func (s *Service) BeginPreview(url, traceID string) {
	s.snap.Store(&Snapshot{
		Loading: true,
		Status:  "fetching loadout",
		URL:     url,
	})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.Preview(ctx, url, traceID); err != nil {
			s.logger.Warn("preview failed", zap.String("url", url), zap.Error(err))
		}
	}()
}

// Preview fetches, resolves and annotates one loadout page, publishes the
// result as the current snapshot and persists it to the history.
func (s *Service) Preview(ctx context.Context, url, traceID string) (*Snapshot, error) {
	start := time.Now()

	parsed, err := s.fetch(ctx, url)
	if err != nil {
		snap := &Snapshot{URL: url, Status: fmt.Sprintf("fetch failed: %v", err)}
		s.snap.Store(snap)
		s.auditPreview(traceID, url, 0, err.Error(), start)
		return snap, err
	}

	if len(parsed.Rows) == 0 {
		snap := &Snapshot{URL: url, Status: "no items found on that page"}
		s.snap.Store(snap)
		s.auditPreview(traceID, url, 0, "", start)
		return snap, nil
	}

	rows := s.resolver.ResolveAll(parsed.Rows)
	s.owners.Annotate(ctx, rows)

	snap := &Snapshot{
		Status:    fmt.Sprintf("parsed %d items", len(rows)),
		URL:       url,
		Title:     parsed.Title,
		Author:    parsed.Author,
		Rows:      rows,
		Dropped:   len(parsed.Rows) - len(rows),
		FetchedAt: time.Now(),
	}
	s.snap.Store(snap)
	s.persistPreview(ctx, snap)
	s.auditPreview(traceID, url, len(rows), "", start)

	return snap, nil
}

// Apply patches the last preview into the live equipment state. The live
// document is fetched fresh inside the patcher on every attempt.
func (s *Service) Apply(ctx context.Context, traceID string) (*glamour.Outcome, error) {
	snap := s.snap.Load()
	if snap == nil || len(snap.Rows) == 0 {
		return nil, ErrNoPreview
	}

	start := time.Now()
	outcome, err := s.patcher.Apply(ctx, snap.Rows)

	entry := audit.Entry{
		TraceID:    traceID,
		Action:     "apply",
		URL:        snap.URL,
		RowCount:   len(snap.Rows),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.StatusCode = outcome.Code
		entry.Detail = outcome
	}
	s.audit.Log(entry)

	return outcome, err
}

// History returns the most recent persisted previews.
func (s *Service) History(ctx context.Context, limit int) ([]model.Preview, error) {
	if limit <= 0 {
		limit = 20
	}
	var previews []model.Preview
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&previews).Error
	return previews, err
}

// PrunePreviews keeps only the newest keep previews.
func (s *Service) PrunePreviews(keep int) {
	if keep <= 0 {
		return
	}
	var ids []int64
	err := s.db.Model(&model.Preview{}).
		Order("created_at DESC").
		Limit(keep).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return
	}
	res := s.db.Where("id NOT IN ?", ids).Delete(&model.Preview{})
	if res.Error != nil {
		s.logger.Error("preview prune failed", zap.Error(res.Error))
	}
}

// fetch returns the parsed page, consulting the parse cache first.
func (s *Service) fetch(ctx context.Context, url string) (*proxy.Result, error) {
	cacheKey := "parse:" + url
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var result proxy.Result
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, nil
		}
	}

	result, err := s.proxy.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) > 0 {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, string(data), s.cacheTTL)
		}
	}
	return result, nil
}

func (s *Service) persistPreview(ctx context.Context, snap *Snapshot) {
	rowsJSON, err := json.Marshal(snap.Rows)
	if err != nil {
		return
	}
	preview := &model.Preview{
		URL:      snap.URL,
		Title:    snap.Title,
		Author:   snap.Author,
		RowCount: len(snap.Rows),
		Rows:     datatypes.JSON(rowsJSON),
	}
	if err := s.db.WithContext(ctx).Create(preview).Error; err != nil {
		s.logger.Warn("preview persist failed", zap.Error(err))
	}
}

func (s *Service) auditPreview(traceID, url string, rows int, errMsg string, start time.Time) {
	s.audit.Log(audit.Entry{
		TraceID:    traceID,
		Action:     "preview",
		URL:        url,
		RowCount:   rows,
		Error:      errMsg,
		DurationMs: int(time.Since(start).Milliseconds()),
	})
}
