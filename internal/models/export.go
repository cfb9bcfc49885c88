package models

import "time"

// ExportState tracks a booking export job.
type ExportState string

const (
	ExportPending   ExportState = "PENDING"
	ExportCompleted ExportState = "COMPLETED"
	ExportFailed    ExportState = "FAILED"
)

// BookingExport is a spreadsheet of an organization's bookings stored in object storage.
type BookingExport struct {
	ID             int64          `json:"id"`
	OrganizationID int64          `json:"organization_id"`
	RequestedBy    int64          `json:"requested_by"`
	Status         *BookingStatus `json:"status,omitempty"`
	State          ExportState    `json:"state"`
	ObjectKey      string         `json:"object_key,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}
