package analysis

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/telecuidado/backend/internal/cache"
	"github.com/telecuidado/backend/internal/followup"
	"github.com/telecuidado/backend/internal/storage"
	"github.com/telecuidado/backend/internal/types"
	"github.com/telecuidado/backend/internal/websocket"
)

func newTestService(c *cache.SnapshotCache) *Service {
	logger := zerolog.New(&bytes.Buffer{})
	hub := websocket.NewHub(logger)
	go hub.Run()
	return NewService(c, hub, storage.NewNoopStore(), followup.DefaultThresholds, time.Minute, logger)
}

func TestRunOncePublishesAnalysis(t *testing.T) {
	c := cache.NewSnapshotCache()
	c.ReplaceCalls([]types.RawCallRecord{
		{Date: types.FlexValue{Str: "01-10-2025"}, Result: "Llamado exitoso", Beneficiary: "Juan Perez", Phones: types.NewPhoneField("912345678")},
	})
	c.ReplaceAssignments([]types.Assignment{
		{OperatorName: "Ana Díaz", Beneficiary: "Juan Perez", Phones: types.NewPhoneField("912345678")},
	})

	svc := newTestService(c)
	svc.RunOnce(context.Background())

	a := c.Analysis()
	if a == nil {
		t.Fatal("analysis not published to the cache")
	}
	if a.Global.TotalCalls != 1 {
		t.Errorf("global totals = %d", a.Global.TotalCalls)
	}
}

func TestRunOnceSkipsEmptySnapshot(t *testing.T) {
	c := cache.NewSnapshotCache()
	svc := newTestService(c)
	svc.RunOnce(context.Background())

	if c.Analysis() != nil {
		t.Error("expected no analysis for an empty snapshot")
	}
}

func TestTriggerNeverBlocks(t *testing.T) {
	svc := newTestService(cache.NewSnapshotCache())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			svc.Trigger()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked with no consumer")
	}
}

func TestCoverageWarningResets(t *testing.T) {
	svc := newTestService(cache.NewSnapshotCache())

	low := &types.Analysis{
		Global:      types.GlobalMetrics{OperatorMetrics: types.OperatorMetrics{TotalCalls: 10}},
		Diagnostics: types.Diagnostics{AttributionCoverage: 10},
	}
	high := &types.Analysis{
		Global:      types.GlobalMetrics{OperatorMetrics: types.OperatorMetrics{TotalCalls: 10}},
		Diagnostics: types.Diagnostics{AttributionCoverage: 90},
	}

	svc.checkCoverage(low)
	if !svc.warnedLowCoverage {
		t.Error("low coverage did not set the warning flag")
	}
	svc.checkCoverage(low)
	svc.checkCoverage(high)
	if svc.warnedLowCoverage {
		t.Error("recovered coverage did not reset the warning flag")
	}
}
