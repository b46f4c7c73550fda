package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/dto"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/services"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/repository"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/utils"
	"gorm.io/gorm"
)

// RetargetFlow builds and submits retarget campaigns from a selected audience
// subset, and lists past submissions.
type RetargetFlow interface {
	SubmitRetarget(ctx context.Context, req *dto.SubmitRetargetRequest, metadata *ClientMetadata) (*dto.SubmitRetargetResponse, error)
	ListSubmissions(ctx context.Context, req *dto.ListRetargetsRequest) (*dto.ListRetargetsResponse, error)
}

// RetargetFlowImpl implements the retarget business flow
type RetargetFlowImpl struct {
	client         services.CampaignLogClient
	db             *gorm.DB
	submissionRepo repository.RetargetSubmissionRepository
	auditRepo      repository.AuditLogRepository
}

// NewRetargetFlow creates a new retarget flow instance
func NewRetargetFlow(
	client services.CampaignLogClient,
	db *gorm.DB,
	submissionRepo repository.RetargetSubmissionRepository,
	auditRepo repository.AuditLogRepository,
) RetargetFlow {
	return &RetargetFlowImpl{
		client:         client,
		db:             db,
		submissionRepo: submissionRepo,
		auditRepo:      auditRepo,
	}
}

// Statuses that mark a source campaign as finished and therefore eligible to
// be retargeted. Matching is by substring so provider-specific variants like
// "CAMPAIGN_SENT" still qualify.
var eligibleStatusMarkers = []string{"SENT", "COMPLETED", "FINISHED", "DONE"}

var placeholderPattern = regexp.MustCompile(`\{\{\s*(\d+)\s*\}\}`)

// SubmitRetarget validates the selection, builds the upstream payload,
// submits it, and records the submission. Validation failures come back as
// sentinel-wrapped BusinessErrors and never reach the upstream API.
func (s *RetargetFlowImpl) SubmitRetarget(ctx context.Context, req *dto.SubmitRetargetRequest, metadata *ClientMetadata) (*dto.SubmitRetargetResponse, error) {
	detail, err := s.client.FetchCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_FETCH_FAILED", "Failed to fetch source campaign", err)
	}
	if detail == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Source campaign not found", ErrCampaignNotFound)
	}
	// Unknown or empty status fails closed: only finished campaigns have a
	// complete send log worth retargeting.
	if !isEligibleStatus(detail.Status) {
		return nil, NewBusinessError("CAMPAIGN_NOT_ELIGIBLE", "Source campaign has not finished sending", ErrCampaignNotEligible)
	}

	if len(req.Contacts) == 0 {
		return nil, NewBusinessError("RETARGET_VALIDATION_FAILED", "No contacts selected", ErrNoContactsSelected)
	}

	name := strings.TrimSpace(req.CampaignName)
	if name == "" {
		return nil, NewBusinessError("RETARGET_VALIDATION_FAILED", "Campaign name is required", ErrCampaignNameRequired)
	}

	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = detail.Provider
	}
	phoneNumberID := strings.TrimSpace(req.PhoneNumberID)
	if phoneNumberID == "" {
		phoneNumberID = detail.PhoneNumberID
	}
	if provider == "" || phoneNumberID == "" {
		return nil, NewBusinessError("RETARGET_VALIDATION_FAILED", "No sender resolvable for retarget", ErrSenderNotResolvable)
	}

	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, NewBusinessError("RETARGET_VALIDATION_FAILED", "No template selected", ErrTemplateNotSelected)
	}
	if !req.TemplateLoaded {
		return nil, NewBusinessError("RETARGET_VALIDATION_FAILED", "Template details are not loaded", ErrTemplateNotLoaded)
	}

	contactIDs, recipientNumbers := partitionIdentifiers(req.Contacts)

	placeholders := extractPlaceholders(req.TemplateBody)
	params, missing := resolveTemplateVariables(placeholders, req.Variables)

	bucket := models.AudienceBucket(strings.ToUpper(strings.TrimSpace(req.Bucket)))
	if bucket == "" {
		bucket = models.BucketAllRecipients
	}

	submission := &models.RetargetSubmission{
		UUID:              uuid.New(),
		SourceCampaignID:  req.CampaignID,
		CampaignName:      name,
		Bucket:            bucket,
		RepliedWindowDays: req.WindowDays,
		ContactIDs:        contactIDs,
		RecipientNumbers:  recipientNumbers,
		TemplateID:        req.TemplateID,
		Provider:          provider,
		PhoneNumberID:     phoneNumberID,
		ScheduledAt:       utils.TimeToUTCPtr(req.ScheduleAt),
		Status:            models.RetargetSubmissionStatusSubmitted,
	}

	payload := buildRetargetPayload(submission, params, req.Variables, req.Buttons)

	newCampaignID, err := s.client.SubmitRetarget(ctx, payload)
	if err != nil {
		s.persistFailure(ctx, submission, metadata, err)
		return nil, NewBusinessError("RETARGET_SUBMIT_FAILED", "Failed to submit retarget campaign", err)
	}
	if newCampaignID != "" {
		submission.NewCampaignID = &newCampaignID
	}

	if err := s.persistSuccess(ctx, submission, metadata); err != nil {
		// The upstream campaign exists even if the local trace failed; report
		// success but keep the error in the logs.
		log.Println("Failed to persist retarget submission:", err)
	}

	return &dto.SubmitRetargetResponse{
		Message:          "Retarget campaign submitted successfully",
		SubmissionUUID:   submission.UUID.String(),
		NewCampaignID:    newCampaignID,
		MissingVariables: missing,
	}, nil
}

// ListSubmissions returns a campaign's past retarget submissions, newest
// first.
func (s *RetargetFlowImpl) ListSubmissions(ctx context.Context, req *dto.ListRetargetsRequest) (*dto.ListRetargetsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = utils.DefaultAudiencePageSize
	}

	// Submission history lives in local storage only. Without a configured
	// repository there is nothing to list.
	if s.submissionRepo == nil {
		return &dto.ListRetargetsResponse{
			Message: "Retarget submissions retrieved successfully",
			Items:   []dto.RetargetSubmissionDTO{},
			Pagination: dto.PaginationInfo{
				Page:     page,
				PageSize: pageSize,
			},
		}, nil
	}

	total, err := s.submissionRepo.CountBySourceCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_LIST_FAILED", "Failed to count retarget submissions", err)
	}

	submissions, err := s.submissionRepo.ListBySourceCampaign(ctx, req.CampaignID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("SUBMISSION_LIST_FAILED", "Failed to list retarget submissions", err)
	}

	items := make([]dto.RetargetSubmissionDTO, 0, len(submissions))
	for _, sub := range submissions {
		items = append(items, dto.RetargetSubmissionDTO{
			UUID:             sub.UUID.String(),
			SourceCampaignID: sub.SourceCampaignID,
			NewCampaignID:    sub.NewCampaignID,
			CampaignName:     sub.CampaignName,
			Bucket:           sub.Bucket.String(),
			RecipientCount:   sub.RecipientCount(),
			Status:           string(sub.Status),
			ScheduledAt:      sub.ScheduledAt,
			CreatedAt:        sub.CreatedAt,
		})
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &dto.ListRetargetsResponse{
		Message: "Retarget submissions retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *RetargetFlowImpl) persistSuccess(ctx context.Context, submission *models.RetargetSubmission, metadata *ClientMetadata) error {
	if s.db == nil || s.submissionRepo == nil {
		return nil
	}
	return repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.submissionRepo.Save(txCtx, submission); err != nil {
			return err
		}
		return s.saveAudit(txCtx, submission, metadata, models.AuditActionRetargetSubmitted, true, nil)
	})
}

func (s *RetargetFlowImpl) persistFailure(ctx context.Context, submission *models.RetargetSubmission, metadata *ClientMetadata, cause error) {
	if s.db == nil || s.submissionRepo == nil {
		return
	}
	submission.Status = models.RetargetSubmissionStatusFailed
	submission.ErrorMessage = utils.ToPtr(cause.Error())
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.submissionRepo.Save(txCtx, submission); err != nil {
			return err
		}
		return s.saveAudit(txCtx, submission, metadata, models.AuditActionRetargetFailed, false, cause)
	})
	if err != nil {
		log.Println("Failed to persist failed retarget submission:", err)
	}
}

func (s *RetargetFlowImpl) saveAudit(ctx context.Context, submission *models.RetargetSubmission, metadata *ClientMetadata, action string, success bool, cause error) error {
	if s.auditRepo == nil {
		return nil
	}
	desc := fmt.Sprintf("Retarget %q from campaign %s (%d recipients)", submission.CampaignName, submission.SourceCampaignID, submission.RecipientCount())
	entry := &models.AuditLog{
		Action:      action,
		CampaignID:  &submission.SourceCampaignID,
		Description: &desc,
		Success:     utils.ToPtr(success),
	}
	if cause != nil {
		entry.ErrorMessage = utils.ToPtr(cause.Error())
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = &metadata.IPAddress
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = &metadata.UserAgent
		}
		if metadata.RequestID != "" {
			entry.RequestID = &metadata.RequestID
		}
		if len(metadata.Additional) > 0 {
			if b, err := json.Marshal(metadata.Additional); err == nil {
				entry.Metadata = b
			}
		}
	}
	return s.auditRepo.Save(ctx, entry)
}

func isEligibleStatus(status string) bool {
	upper := strings.ToUpper(strings.TrimSpace(status))
	if upper == "" {
		return false
	}
	for _, marker := range eligibleStatusMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// isContactID reports whether the identifier is a canonical hyphenated
// RFC 4122 UUID (versions 1 through 5). Everything else is treated as a raw
// phone number.
func isContactID(identifier string) bool {
	if len(identifier) != 36 {
		return false
	}
	u, err := uuid.Parse(identifier)
	if err != nil {
		return false
	}
	if u.Variant() != uuid.RFC4122 {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5
}

// partitionIdentifiers splits the selection into resolvable contact IDs and
// raw recipient numbers, each deduplicated preserving first-seen order. For a
// non-ID identifier the contact's phone field wins when present, since the
// identifier may be a synthetic row key.
func partitionIdentifiers(contacts []dto.RetargetContact) (contactIDs, recipientNumbers []string) {
	seenIDs := make(map[string]bool)
	seenNumbers := make(map[string]bool)
	contactIDs = []string{}
	recipientNumbers = []string{}

	for _, c := range contacts {
		identifier := strings.TrimSpace(c.Identifier)
		if identifier == "" {
			continue
		}
		if isContactID(identifier) {
			if !seenIDs[identifier] {
				seenIDs[identifier] = true
				contactIDs = append(contactIDs, identifier)
			}
			continue
		}
		number := strings.TrimSpace(c.Phone)
		if number == "" {
			number = identifier
		}
		if !seenNumbers[number] {
			seenNumbers[number] = true
			recipientNumbers = append(recipientNumbers, number)
		}
	}
	return contactIDs, recipientNumbers
}

// extractPlaceholders returns the distinct {{n}} placeholder numbers in the
// template body, sorted ascending.
func extractPlaceholders(body string) []int {
	matches := placeholderPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[int]bool)
	placeholders := []int{}
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		placeholders = append(placeholders, n)
	}
	sort.Ints(placeholders)
	return placeholders
}

// resolveTemplateVariables maps each placeholder to its configured value or
// per-recipient token. Empty resolutions fall back to the configured constant
// when the policy allows; otherwise the placeholder is flagged missing and
// left empty, which warns the caller without blocking submission.
func resolveTemplateVariables(placeholders []int, configs []dto.TemplateVariableConfig) (map[string]string, []int) {
	byPlaceholder := make(map[int]dto.TemplateVariableConfig, len(configs))
	for _, cfg := range configs {
		byPlaceholder[cfg.Placeholder] = cfg
	}

	params := make(map[string]string, len(placeholders))
	var missing []int
	for _, n := range placeholders {
		cfg, ok := byPlaceholder[n]
		value := ""
		if ok {
			switch cfg.Source {
			case "contact_name":
				value = "{{contact.name}}"
			case "contact_phone":
				value = "{{contact.phone}}"
			case "custom_field":
				if strings.TrimSpace(cfg.CustomField) != "" {
					value = "{{contact.fields." + strings.TrimSpace(cfg.CustomField) + "}}"
				}
			default:
				value = cfg.Value
			}
			if value == "" && cfg.OnEmpty == "fallback" {
				value = cfg.Fallback
			}
		}
		if value == "" {
			missing = append(missing, n)
		}
		params[strconv.Itoa(n)] = value
	}
	return params, missing
}

// isDynamicButton reports whether a button collects a per-recipient value.
// Static buttons pass their parameter value through unchanged.
func isDynamicButton(b dto.ButtonParam) bool {
	switch strings.ToLower(strings.TrimSpace(b.SubType)) {
	case "url", "copy_code", "flow":
		return true
	}
	return strings.Contains(b.ParameterValue, "{{1}}")
}

func buildButtonPayloads(buttons []dto.ButtonParam) []map[string]any {
	out := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, map[string]any{
			"index":          b.Index,
			"subType":        b.SubType,
			"parameterValue": b.ParameterValue,
			"dynamic":        isDynamicButton(b),
		})
	}
	return out
}

// buildRetargetPayload assembles the upstream creation payload. Fields are
// duplicated at the top level and under a nested campaign object because two
// historical upstream DTO shapes are still in circulation.
func buildRetargetPayload(submission *models.RetargetSubmission, params map[string]string, configs []dto.TemplateVariableConfig, buttons []dto.ButtonParam) map[string]any {
	fields := map[string]any{
		"sourceCampaignId":        submission.SourceCampaignID,
		"campaignName":            submission.CampaignName,
		"bucket":                  submission.Bucket.String(),
		"repliedWindowDays":       submission.RepliedWindowDays,
		"contactIds":              []string(submission.ContactIDs),
		"recipientNumbers":        []string(submission.RecipientNumbers),
		"templateId":              submission.TemplateID,
		"templateParameters":      params,
		"templateVariableConfigs": configs,
		"buttonParams":            buildButtonPayloads(buttons),
		"provider":                submission.Provider,
		"phoneNumberId":           submission.PhoneNumberID,
	}
	if submission.ScheduledAt != nil {
		fields["scheduledAt"] = submission.ScheduledAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	} else {
		fields["scheduledAt"] = nil
	}

	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	nested := make(map[string]any, len(fields))
	for k, v := range fields {
		nested[k] = v
	}
	payload["campaign"] = nested
	return payload
}
