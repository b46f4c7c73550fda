package dto

import (
	"time"
)

// RetargetContact is one selected audience member. Identifier is either an
// opaque contact ID or a raw phone number; Name and Phone let the phone be
// recovered at submit time when the identifier is not ID-resolvable.
type RetargetContact struct {
	Identifier string `json:"identifier" validate:"required"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// TemplateVariableConfig configures how one {{n}} placeholder resolves.
type TemplateVariableConfig struct {
	Placeholder int    `json:"placeholder" validate:"gte=1"`
	Source      string `json:"source" validate:"omitempty,oneof=constant contact_name contact_phone custom_field"`
	Value       string `json:"value,omitempty"`
	CustomField string `json:"custom_field,omitempty"`
	// OnEmpty selects the policy when the resolved value is empty:
	// "fallback" substitutes Fallback, "skip" leaves the value empty.
	OnEmpty  string `json:"on_empty,omitempty" validate:"omitempty,oneof=fallback skip"`
	Fallback string `json:"fallback,omitempty"`
}

// ButtonParam configures one template button.
type ButtonParam struct {
	Index          int    `json:"index"`
	SubType        string `json:"sub_type,omitempty"`
	ParameterValue string `json:"parameter_value,omitempty"`
}

// SubmitRetargetRequest represents the request to create a retarget campaign
// from a selected audience subset of a finished source campaign.
type SubmitRetargetRequest struct {
	CampaignID   string                   `json:"-"`
	CampaignName string                   `json:"campaign_name"`
	Bucket       string                   `json:"bucket"`
	WindowDays   int                      `json:"window_days" validate:"gte=0"`
	Contacts     []RetargetContact        `json:"contacts"`
	TemplateID   string                   `json:"template_id"`
	TemplateBody string                   `json:"template_body"`
	// TemplateLoaded reports whether the caller finished loading template
	// details; submissions are refused while the template is still pending.
	TemplateLoaded bool                     `json:"template_loaded"`
	Variables      []TemplateVariableConfig `json:"variables,omitempty"`
	Buttons        []ButtonParam            `json:"buttons,omitempty"`
	Provider       string                   `json:"provider"`
	PhoneNumberID  string                   `json:"phone_number_id"`
	ScheduleAt     *time.Time               `json:"schedule_at,omitempty"`
}

// SubmitRetargetResponse represents the outcome of a retarget submission.
type SubmitRetargetResponse struct {
	Message        string `json:"message"`
	SubmissionUUID string `json:"submission_uuid"`
	NewCampaignID  string `json:"new_campaign_id"`
	// MissingVariables lists placeholders that resolved to an empty value so
	// the caller can warn before sending; they never block submission.
	MissingVariables []int `json:"missing_variables,omitempty"`
}

// ListRetargetsRequest represents a paginated list request for a campaign's
// past retarget submissions.
type ListRetargetsRequest struct {
	CampaignID string `json:"-"`
	Page       int    `json:"page" validate:"gte=0"`
	PageSize   int    `json:"page_size" validate:"gte=0,lte=100"`
}

// RetargetSubmissionDTO is one past submission in list responses.
type RetargetSubmissionDTO struct {
	UUID             string     `json:"uuid"`
	SourceCampaignID string     `json:"source_campaign_id"`
	NewCampaignID    *string    `json:"new_campaign_id,omitempty"`
	CampaignName     string     `json:"campaign_name"`
	Bucket           string     `json:"bucket"`
	RecipientCount   int        `json:"recipient_count"`
	Status           string     `json:"status"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ListRetargetsResponse represents a paginated list of submissions.
type ListRetargetsResponse struct {
	Message    string                  `json:"message"`
	Items      []RetargetSubmissionDTO `json:"items"`
	Pagination PaginationInfo          `json:"pagination"`
}
