package dto

import (
	"time"
)

// AudienceQueryRequest represents one page request against a campaign's
// classified audience.
type AudienceQueryRequest struct {
	CampaignID string `json:"-"`
	Bucket     string `json:"bucket"`
	// WindowDays left nil means "use the configured default"; an explicit
	// zero disables the reply window entirely.
	WindowDays *int   `json:"window_days" validate:"omitempty,gte=0"`
	Search     string `json:"search"`
	Page       int    `json:"page" validate:"gte=0"`
	PageSize   int    `json:"page_size" validate:"gte=0,lte=500"`
}

// AudienceContactDTO is one classified, deduplicated audience row.
type AudienceContactDTO struct {
	ContactKey     string     `json:"contact_key"`
	Name           string     `json:"name,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Status         string     `json:"status,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// AudienceQueryResponse represents a paginated audience page.
type AudienceQueryResponse struct {
	Message    string               `json:"message"`
	CampaignID string               `json:"campaign_id"`
	Bucket     string               `json:"bucket"`
	Items      []AudienceContactDTO `json:"items"`
	Pagination PaginationInfo       `json:"pagination"`
	// Source names the upstream tier that produced the page, or "derived"
	// when the service classified a raw recipient list itself.
	Source string `json:"source"`
}

// AudienceExportRequest represents an export of a classified audience.
type AudienceExportRequest struct {
	CampaignID string `json:"-"`
	Bucket     string `json:"bucket"`
	WindowDays *int   `json:"window_days" validate:"omitempty,gte=0"`
	Search     string `json:"search"`
	Format     string `json:"format" validate:"omitempty,oneof=csv xlsx"`
}

// AudienceExportResult carries a generated export file.
type AudienceExportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	RowCount    int    `json:"row_count"`
	// Truncated is set when the filtered set exceeded the export cap and the
	// export degraded to the first page only.
	Truncated bool `json:"truncated"`
}
