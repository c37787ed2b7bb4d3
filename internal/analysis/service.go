package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telecuidado/backend/internal/cache"
	"github.com/telecuidado/backend/internal/engine"
	"github.com/telecuidado/backend/internal/followup"
	"github.com/telecuidado/backend/internal/metrics"
	"github.com/telecuidado/backend/internal/storage"
	"github.com/telecuidado/backend/internal/types"
	"github.com/telecuidado/backend/internal/websocket"
)

// lowCoverageThreshold is the attribution coverage, in percent, below which
// the dataset pairing is probably wrong (calls from one campaign, assignments
// from another).
const lowCoverageThreshold = 50

// Service owns the analysis loop: it re-runs the pipeline on a schedule and
// whenever an import lands, publishes the result to the cache and the hub,
// and persists a run summary.
type Service struct {
	cache      *cache.SnapshotCache
	hub        *websocket.Hub
	store      storage.Store
	thresholds followup.Thresholds
	interval   time.Duration
	trigger    chan struct{}
	logger     zerolog.Logger

	warnedLowCoverage bool
}

// NewService creates the analysis service.
func NewService(c *cache.SnapshotCache, hub *websocket.Hub, store storage.Store, thresholds followup.Thresholds, interval time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		cache:      c,
		hub:        hub,
		store:      store,
		thresholds: thresholds,
		interval:   interval,
		trigger:    make(chan struct{}, 1),
		logger:     logger,
	}
}

// Trigger requests an analysis run. Non-blocking; a run already pending
// covers this request too.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Start runs the analysis loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("analysis service started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("analysis service stopped")
			return

		case <-ticker.C:
			s.RunOnce(ctx)

		case <-s.trigger:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes one full analysis over the current snapshot.
func (s *Service) RunOnce(ctx context.Context) {
	snap := s.cache.Snapshot()
	if len(snap.Calls) == 0 {
		s.logger.Debug().Msg("no call data loaded, skipping analysis")
		return
	}

	start := time.Now()
	analysis := engine.Analyze(snap.Calls, snap.Assignments, start.UTC(), engine.Options{Thresholds: s.thresholds})
	elapsed := time.Since(start)

	s.cache.SetAnalysis(&analysis)
	metrics.Get().RecordAnalysis(elapsed, &analysis)

	s.logger.Info().
		Int("calls", analysis.Global.TotalCalls).
		Int("operators", len(analysis.Operators)).
		Int("follow_ups", len(analysis.FollowUps)).
		Int("coverage", analysis.Diagnostics.AttributionCoverage).
		Dur("duration", elapsed).
		Msg("analysis completed")

	s.checkCoverage(&analysis)
	s.broadcast(&analysis)
	s.persist(&analysis)
}

// checkCoverage warns once per dataset when attribution coverage drops below
// the threshold. The flag resets when coverage recovers so the next drop
// warns again.
func (s *Service) checkCoverage(a *types.Analysis) {
	low := a.Diagnostics.AttributionCoverage < lowCoverageThreshold && a.Global.TotalCalls > 0
	if low && !s.warnedLowCoverage {
		s.logger.Warn().
			Int("coverage", a.Diagnostics.AttributionCoverage).
			Int("unmatched", a.Diagnostics.AttributionByMethod[types.MethodNone]).
			Msg("attribution coverage is low, call and assignment datasets may not match")
		s.warnedLowCoverage = true
	}
	if !low {
		s.warnedLowCoverage = false
	}
}

func (s *Service) broadcast(a *types.Analysis) {
	data, err := json.Marshal(a)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal analysis")
		metrics.Get().RecordAnalysisError()
		return
	}
	s.hub.Broadcast(data)
	metrics.Get().RecordWebSocketMessage()
	s.logger.Debug().
		Int("clients", s.hub.ClientCount()).
		Msg("analysis broadcasted")
}

func (s *Service) persist(a *types.Analysis) {
	urgente, pendiente, alDia := 0, 0, 0
	for _, f := range a.FollowUps {
		switch f.Status {
		case types.StatusUrgente:
			urgente++
		case types.StatusPendiente:
			pendiente++
		case types.StatusAlDia:
			alDia++
		}
	}

	run := types.AnalysisRun{
		DateKey:             a.GeneratedAt.Format("2006-01-02"),
		RunID:               uuid.New().String(),
		GeneratedAt:         a.GeneratedAt.Format(time.RFC3339),
		TotalCalls:          a.Global.TotalCalls,
		SuccessfulCalls:     a.Global.SuccessfulCalls,
		Operators:           len(a.Operators),
		UnassignedCalls:     a.Unassigned.TotalCalls,
		AttributionCoverage: a.Diagnostics.AttributionCoverage,
		UrgenteCount:        urgente,
		PendienteCount:      pendiente,
		AlDiaCount:          alDia,
	}

	if err := s.store.SaveAnalysisRun(run); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist analysis run")
		metrics.Get().RecordAnalysisError()
	}
}
