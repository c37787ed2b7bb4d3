package storage

import "github.com/telecuidado/backend/internal/types"

// Store defines the storage interface
type Store interface {
	SaveImportBatch(batch types.ImportBatch) error
	SaveAnalysisRun(run types.AnalysisRun) error
	GetImportBatches(dateKey string) ([]types.ImportBatch, error)
	GetAnalysisRuns(dateKey string) ([]types.AnalysisRun, error)
	TruncateAll() error
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveImportBatch(_ types.ImportBatch) error                 { return nil }
func (s *NoopStore) SaveAnalysisRun(_ types.AnalysisRun) error                 { return nil }
func (s *NoopStore) GetImportBatches(_ string) ([]types.ImportBatch, error)    { return nil, nil }
func (s *NoopStore) GetAnalysisRuns(_ string) ([]types.AnalysisRun, error)     { return nil, nil }
func (s *NoopStore) TruncateAll() error                                        { return nil }
