// Package exports renders an organization's bookings to a spreadsheet in object storage.
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/metrics"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/apperror"
	"github.com/resourcebook/backend/pkg/queue"
	"github.com/resourcebook/backend/pkg/storage"
)

// Enqueuer schedules export jobs.
type Enqueuer interface {
	EnqueueBookingExport(ctx context.Context, payload queue.BookingExportPayload) error
}

// Objects stores rendered workbooks. *storage.S3 satisfies it.
type Objects interface {
	PutExport(ctx context.Context, key string, body io.Reader, size int64) error
	ExportURL(ctx context.Context, key string) (string, error)
}

// View is an export as returned to clients.
type View struct {
	*models.BookingExport
	DownloadURL string `json:"download_url,omitempty"`
}

// Service requests, generates and serves booking exports.
type Service struct {
	store   store.Store
	queue   Enqueuer
	objects Objects
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates an exports service.
func NewService(st store.Store, q Enqueuer, objects Objects, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, queue: q, objects: objects, logger: logger, now: time.Now}
}

// Request records a pending export and queues it for generation.
func (s *Service) Request(ctx context.Context, orgID, requestedBy int64, status *models.BookingStatus) (*models.BookingExport, error) {
	e := &models.BookingExport{
		OrganizationID: orgID,
		RequestedBy:    requestedBy,
		Status:         status,
		State:          models.ExportPending,
	}
	if err := s.store.CreateExport(ctx, e); err != nil {
		return nil, fmt.Errorf("insert export: %w", err)
	}
	if err := s.queue.EnqueueBookingExport(ctx, queue.BookingExportPayload{ExportID: e.ID, OrganizationID: orgID}); err != nil {
		if ferr := s.Fail(ctx, e.ID, err); ferr != nil {
			s.logger.Error("mark export failed", zap.Int64("export_id", e.ID), zap.Error(ferr))
		}
		return nil, fmt.Errorf("enqueue export: %w", err)
	}
	s.logger.Info("export requested", zap.Int64("export_id", e.ID), zap.Int64("organization_id", orgID))
	return e, nil
}

// Get returns an export by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.BookingExport, error) {
	e, err := s.store.GetExport(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("export", id)
		}
		return nil, fmt.Errorf("get export: %w", err)
	}
	return e, nil
}

// View attaches a download URL to a completed export.
func (s *Service) View(ctx context.Context, e *models.BookingExport) (*View, error) {
	v := &View{BookingExport: e}
	if e.State == models.ExportCompleted && e.ObjectKey != "" {
		url, err := s.objects.ExportURL(ctx, e.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("presign export: %w", err)
		}
		v.DownloadURL = url
	}
	return v, nil
}

// Generate renders and uploads a pending export. Exports that already left
// PENDING are skipped so a redelivered job is harmless.
func (s *Service) Generate(ctx context.Context, id int64) error {
	e, err := s.store.GetExport(ctx, id)
	if err != nil {
		return fmt.Errorf("get export %d: %w", id, err)
	}
	if e.State != models.ExportPending {
		s.logger.Debug("export already processed", zap.Int64("export_id", id), zap.String("state", string(e.State)))
		return nil
	}

	orgID := e.OrganizationID
	list, err := s.store.ListBookings(ctx, store.BookingFilter{OrganizationID: &orgID, Status: e.Status})
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	var buf bytes.Buffer
	if err := Render(&buf, list); err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}
	key := storage.ExportKey(orgID, id)
	if err := s.objects.PutExport(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return fmt.Errorf("upload workbook: %w", err)
	}

	done := s.now()
	e.State = models.ExportCompleted
	e.ObjectKey = key
	e.Error = ""
	e.CompletedAt = &done
	if err := s.store.UpdateExport(ctx, e); err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	metrics.IncExportJob("completed")
	s.logger.Info("export completed", zap.Int64("export_id", id), zap.Int("bookings", len(list)), zap.String("key", key))
	return nil
}

// Fail marks an export as failed with the given cause.
func (s *Service) Fail(ctx context.Context, id int64, cause error) error {
	e, err := s.store.GetExport(ctx, id)
	if err != nil {
		return fmt.Errorf("get export %d: %w", id, err)
	}
	done := s.now()
	e.State = models.ExportFailed
	e.Error = cause.Error()
	e.CompletedAt = &done
	if err := s.store.UpdateExport(ctx, e); err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	metrics.IncExportJob("failed")
	s.logger.Warn("export failed", zap.Int64("export_id", id), zap.Error(cause))
	return nil
}
