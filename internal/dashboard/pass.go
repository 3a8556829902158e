// Package dashboard runs one recomputation pass: cached load, then filter
// and aggregate. Each pass is synchronous and rebuilds its view from
// scratch.
package dashboard

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"molintel/domain/compound"
	"molintel/internal"
	"molintel/internal/cache"
	"molintel/internal/engine"

	"github.com/google/uuid"
)

// Status classifies how a pass ended
type Status string

const (
	// StatusOK means the load and filter both succeeded
	StatusOK Status = "ok"
	// StatusRecovered means the load failed and the pass continued with
	// an empty dataset
	StatusRecovered Status = "recovered"
	// StatusFatal means the pass itself failed; the view is empty
	StatusFatal Status = "fatal"
)

// Outcome is the explicit result classification of a pass
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports a clean pass
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// LoadInfo describes the dataset a pass worked from
type LoadInfo struct {
	Rows     int       `json:"rows"`
	Dropped  int       `json:"dropped"`
	Total    int       `json:"total"`
	LoadedAt time.Time `json:"loaded_at"`
	Cached   bool      `json:"cached"`
}

// Request is the input of a pass
type Request struct {
	Criteria compound.Criteria
	// Refresh clears the memo before loading
	Refresh bool
}

// PassResult is everything the presentation layer needs for one render
type PassResult struct {
	ID        string           `json:"id"`
	StartedAt time.Time        `json:"started_at"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
	View      compound.View    `json:"view"`
	Metrics   compound.Metrics `json:"metrics"`
	Bounds    compound.Bounds  `json:"bounds"`
	Names     []string         `json:"names"`
	Load      LoadInfo         `json:"load"`
	Outcome   Outcome          `json:"outcome"`
}

// Service runs passes against a memoized loader
type Service struct {
	memo   *cache.Memo
	now    func() time.Time
	logger *internal.Logger
	// apply is engine.Apply; swapped in tests to exercise fatal recovery
	apply func(compound.Dataset, compound.Criteria) (compound.View, compound.Metrics)
}

// NewService creates a pass service
func NewService(memo *cache.Memo) *Service {
	return &Service{
		memo:   memo,
		now:    time.Now,
		logger: internal.DefaultLogger.With("Pass"),
		apply:  engine.Apply,
	}
}

// Invalidate is the manual "clear cache and refetch" trigger
func (s *Service) Invalidate() {
	s.memo.Invalidate()
}

// Run executes one pass. It never panics and never returns an error:
// failures are reported in the Outcome together with a safe empty view.
func (s *Service) Run(ctx context.Context, req Request) (result PassResult) {
	start := s.now()
	result = PassResult{
		ID:        uuid.NewString(),
		StartedAt: start,
		View:      emptyView(),
		Outcome:   Outcome{Status: StatusOK},
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pass %s failed: %v\n%s", result.ID, r, debug.Stack())
			result.View = emptyView()
			result.Metrics = compound.Metrics{}
			result.Outcome = Outcome{
				Status:  StatusFatal,
				Message: fmt.Sprintf("Dashboard system error: %v", r),
			}
		}
		result.Elapsed = s.now().Sub(start)
	}()

	if req.Refresh {
		s.logger.Info("pass %s: cache cleared by refresh", result.ID)
		s.memo.Invalidate()
	}

	loaded, cached := s.memo.GetOrRefresh(ctx, start)
	result.Load = LoadInfo{
		Rows:     loaded.Rows,
		Dropped:  loaded.Dropped,
		Total:    loaded.Dataset.Len(),
		LoadedAt: loaded.LoadedAt,
		Cached:   cached,
	}
	if loaded.Failed() {
		result.Outcome = Outcome{Status: StatusRecovered, Message: loaded.Diagnostic}
	}

	result.Bounds = engine.DeriveBounds(loaded.Dataset)
	result.Names = loaded.Dataset.Names()
	result.View, result.Metrics = s.apply(loaded.Dataset, req.Criteria)

	s.logger.Debug("pass %s: %d of %d compounds in view (cached=%t)",
		result.ID, result.Metrics.Count, loaded.Dataset.Len(), cached)
	return result
}

func emptyView() compound.View {
	ds := compound.EmptyDataset()
	return compound.View{Columns: ds.Columns, Compounds: ds.Compounds}
}
