package services

import (
	"context"
	"fmt"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/ingest"
	"github.com/soltixdb/climatix/internal/logging"
)

// IngestService validates incoming readings and hands them to the writer
type IngestService struct {
	logger       *logging.Logger
	writer       *ingest.Writer
	maxBatchSize int
	now          func() time.Time
}

// NewIngestService creates a new IngestService
func NewIngestService(logger *logging.Logger, writer *ingest.Writer, maxBatchSize int) *IngestService {
	return &IngestService{
		logger:       logger,
		writer:       writer,
		maxBatchSize: maxBatchSize,
		now:          time.Now,
	}
}

// IngestResult reports what was accepted from a request
type IngestResult struct {
	BatchID  string `json:"batch_id,omitempty"`
	Received int    `json:"received"`
	Skipped  int    `json:"skipped,omitempty"`
}

// WriteRecord accepts one {timestamp?, temp, hum, lux} object. Unlike the
// batch forms, a malformed single record is rejected.
func (s *IngestService) WriteRecord(ctx context.Context, deviceID string, obj map[string]interface{}) (*IngestResult, error) {
	reading, ok := ingest.FromObject(obj, s.now().Unix())
	if !ok {
		return nil, NewServiceError(CodeInvalidRequest, "temp, hum and lux are required numeric fields")
	}
	return s.write(ctx, deviceID, []analytics.Reading{reading}, 0)
}

// WriteBatch accepts a list of objects, skipping malformed ones
func (s *IngestService) WriteBatch(ctx context.Context, deviceID string, objs []map[string]interface{}) (*IngestResult, error) {
	if err := s.checkSize(len(objs)); err != nil {
		return nil, err
	}

	now := s.now().Unix()
	readings := make([]analytics.Reading, 0, len(objs))
	for _, obj := range objs {
		if r, ok := ingest.FromObject(obj, now); ok {
			readings = append(readings, r)
		}
	}
	return s.write(ctx, deviceID, readings, len(objs)-len(readings))
}

// WriteArray accepts compact [timestamp, temp, hum, lux] rows, skipping
// malformed ones
func (s *IngestService) WriteArray(ctx context.Context, deviceID string, rows [][]interface{}) (*IngestResult, error) {
	if err := s.checkSize(len(rows)); err != nil {
		return nil, err
	}

	readings := make([]analytics.Reading, 0, len(rows))
	for _, row := range rows {
		if r, ok := ingest.FromArray(row); ok {
			readings = append(readings, r)
		}
	}
	return s.write(ctx, deviceID, readings, len(rows)-len(readings))
}

func (s *IngestService) checkSize(n int) error {
	if s.maxBatchSize > 0 && n > s.maxBatchSize {
		return NewServiceErrorWithDetails(CodeInvalidRequest,
			fmt.Sprintf("batch of %d records exceeds the limit of %d", n, s.maxBatchSize),
			map[string]interface{}{"max_batch_size": s.maxBatchSize})
	}
	return nil
}

func (s *IngestService) write(ctx context.Context, deviceID string, readings []analytics.Reading, skipped int) (*IngestResult, error) {
	if deviceID == "" {
		return nil, NewServiceError(CodeInvalidRequest, "device_id is required")
	}

	b, err := s.writer.Write(ctx, deviceID, readings)
	if err != nil {
		if svcErr := registryError(err); svcErr != nil {
			return nil, svcErr
		}
		return nil, NewServiceErrorWithDetails(CodeIngestFailed, "failed to store readings",
			map[string]interface{}{"error": err.Error()})
	}

	if skipped > 0 {
		s.logger.Debug("Skipped malformed records", "device_id", deviceID, "skipped", skipped)
	}
	return &IngestResult{
		BatchID:  b.ID,
		Received: len(readings),
		Skipped:  skipped,
	}, nil
}
