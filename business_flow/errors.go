// Package businessflow contains the core business logic and use cases for audience and retarget workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Campaign-related errors
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrCampaignNotEligible = errors.New("campaign is not eligible for retargeting")

	// Audience query errors
	ErrInvalidPage         = errors.New("page must be at least 1")
	ErrInvalidPageSize     = errors.New("page size must be between 1 and 500")
	ErrAudienceUnavailable = errors.New("no upstream endpoint can serve the audience")

	// Export errors
	ErrExportFormatUnsupported = errors.New("export format must be csv or xlsx")

	// Retarget validation errors
	ErrNoContactsSelected   = errors.New("at least one contact must be selected")
	ErrCampaignNameRequired = errors.New("campaign name is required")
	ErrSenderNotResolvable  = errors.New("provider and phone number id are required")
	ErrTemplateNotSelected  = errors.New("a template must be selected")
	ErrTemplateNotLoaded    = errors.New("template details are still loading or failed to load")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignNotEligible(err error) bool {
	return errors.Is(err, ErrCampaignNotEligible)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsAudienceUnavailable(err error) bool {
	return errors.Is(err, ErrAudienceUnavailable)
}

func IsExportFormatUnsupported(err error) bool {
	return errors.Is(err, ErrExportFormatUnsupported)
}

func IsNoContactsSelected(err error) bool {
	return errors.Is(err, ErrNoContactsSelected)
}

func IsCampaignNameRequired(err error) bool {
	return errors.Is(err, ErrCampaignNameRequired)
}

func IsSenderNotResolvable(err error) bool {
	return errors.Is(err, ErrSenderNotResolvable)
}

func IsTemplateNotSelected(err error) bool {
	return errors.Is(err, ErrTemplateNotSelected)
}

func IsTemplateNotLoaded(err error) bool {
	return errors.Is(err, ErrTemplateNotLoaded)
}

// IsRetargetValidationError reports whether the error is any of the retarget
// builder's validation failures, which surface as warnings rather than
// internal errors.
func IsRetargetValidationError(err error) bool {
	return IsCampaignNotEligible(err) ||
		IsNoContactsSelected(err) ||
		IsCampaignNameRequired(err) ||
		IsSenderNotResolvable(err) ||
		IsTemplateNotSelected(err) ||
		IsTemplateNotLoaded(err)
}
