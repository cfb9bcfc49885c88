package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/exports"
	"github.com/resourcebook/backend/pkg/queue"
)

// ExportProcessor processes booking export jobs: render the workbook, upload to S3, update DB.
type ExportProcessor struct {
	exports *exports.Service
	queue   *queue.Queue
	logger  *zap.Logger
	backoff time.Duration
}

// NewExportProcessor creates a booking export processor.
func NewExportProcessor(svc *exports.Service, q *queue.Queue, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{exports: svc, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one booking export job.
func (p *ExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.BookingExport()
	if err != nil {
		return fmt.Errorf("job %s: %w", job.ID, err)
	}
	return p.exports.Generate(ctx, payload.ExportID)
}

// Run starts the worker loop: dequeue, process, retry on error. A job that
// exhausts its retries marks its export FAILED.
func (p *ExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}
		job, err := p.queue.Dequeue(ctx, queue.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}
		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			p.retry(ctx, job, err)
			p.sleep(ctx)
		}
	}
}

func (p *ExportProcessor) retry(ctx context.Context, job *queue.Job, cause error) {
	dead, err := p.queue.Retry(ctx, job)
	if err != nil {
		p.logger.Error("retry enqueue failed", zap.Error(err))
		return
	}
	if !dead {
		return
	}
	payload, err := job.BookingExport()
	if err != nil {
		return
	}
	if err := p.exports.Fail(ctx, payload.ExportID, cause); err != nil {
		p.logger.Error("mark export failed", zap.Int64("export_id", payload.ExportID), zap.Error(err))
	}
}

func (p *ExportProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
