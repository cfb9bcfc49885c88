package models

import "time"

// BookingStatus is a state of the booking lifecycle.
type BookingStatus string

const (
	BookingInitial    BookingStatus = "INITIAL"
	BookingApproved   BookingStatus = "APPROVED"
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// BookingStatuses lists every lifecycle state in transition order.
var BookingStatuses = []BookingStatus{
	BookingInitial,
	BookingApproved,
	BookingInProgress,
	BookingCompleted,
	BookingCancelled,
}

// Terminal reports whether no further transition leaves this state.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// ParseBookingStatus accepts the canonical upper-case names.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	for _, st := range BookingStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Booking holds a resource for a user over a time window.
type Booking struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	ResourceID     int64         `json:"resource_id"`
	OrganizationID int64         `json:"organization_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Status         BookingStatus `json:"status"`
	ApprovedBy     *int64        `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
