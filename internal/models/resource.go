package models

import "time"

// ResourceStatus is the availability flag of a resource.
type ResourceStatus string

const (
	ResourceEnabled  ResourceStatus = "ENABLED"
	ResourceDisabled ResourceStatus = "DISABLED"
)

// Resource is a bookable unit owned by an organization.
type Resource struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	OrganizationID int64          `json:"organization_id"`
	Status         ResourceStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
