package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RetargetSubmissionStatus represents the outcome of a retarget submission
type RetargetSubmissionStatus string

const (
	RetargetSubmissionStatusSubmitted RetargetSubmissionStatus = "submitted"
	RetargetSubmissionStatusFailed    RetargetSubmissionStatus = "failed"
)

// RetargetSubmission records one retarget campaign creation request sent to
// the upstream campaign API. The selection that produced it is consumed
// exactly once; this row is the durable trace of that consumption.
type RetargetSubmission struct {
	ID                uint                     `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:uk_retarget_submissions_uuid" json:"uuid"`
	SourceCampaignID  string                   `gorm:"size:64;not null;index:idx_retarget_submissions_source" json:"source_campaign_id"`
	NewCampaignID     *string                  `gorm:"size:64" json:"new_campaign_id,omitempty"`
	CampaignName      string                   `gorm:"size:255;not null" json:"campaign_name"`
	Bucket            AudienceBucket           `gorm:"size:32;not null" json:"bucket"`
	RepliedWindowDays int                      `gorm:"not null;default:0" json:"replied_window_days"`
	ContactIDs        pq.StringArray           `gorm:"type:text[]" json:"contact_ids"`
	RecipientNumbers  pq.StringArray           `gorm:"type:text[]" json:"recipient_numbers"`
	TemplateID        string                   `gorm:"size:128;not null" json:"template_id"`
	Provider          string                   `gorm:"size:64;not null" json:"provider"`
	PhoneNumberID     string                   `gorm:"size:64;not null" json:"phone_number_id"`
	ScheduledAt       *time.Time               `json:"scheduled_at,omitempty"`
	Status            RetargetSubmissionStatus `gorm:"size:16;not null;default:'submitted';index:idx_retarget_submissions_status" json:"status"`
	ErrorMessage      *string                  `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt         time.Time                `gorm:"default:CURRENT_TIMESTAMP;index:idx_retarget_submissions_created_at" json:"created_at"`
}

func (RetargetSubmission) TableName() string {
	return "retarget_submissions"
}

// RecipientCount is the total number of distinct recipients addressed by the
// submission, across both identifier shapes.
func (s *RetargetSubmission) RecipientCount() int {
	return len(s.ContactIDs) + len(s.RecipientNumbers)
}

// RetargetSubmissionFilter represents filter criteria for submission queries
type RetargetSubmissionFilter struct {
	ID               *uint
	UUID             *uuid.UUID
	SourceCampaignID *string
	Status           *RetargetSubmissionStatus
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
}
