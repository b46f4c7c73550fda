package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/dto"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/services"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/config"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/repository"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/utils"
)

// AudienceFlow serves classified, deduplicated, paginated audience pages for
// a campaign's send log.
type AudienceFlow interface {
	QueryAudience(ctx context.Context, req *dto.AudienceQueryRequest) (*dto.AudienceQueryResponse, error)
}

// AudienceFlowImpl implements the audience query business flow
type AudienceFlowImpl struct {
	client      services.CampaignLogClient
	rc          *redis.Client
	audienceCfg config.AudienceConfig
	cacheCfg    *config.CacheConfig
	auditRepo   repository.AuditLogRepository
}

// NewAudienceFlow creates a new audience flow instance
func NewAudienceFlow(
	client services.CampaignLogClient,
	rc *redis.Client,
	audienceCfg config.AudienceConfig,
	cacheCfg *config.CacheConfig,
	auditRepo repository.AuditLogRepository,
) AudienceFlow {
	return &AudienceFlowImpl{
		client:      client,
		rc:          rc,
		audienceCfg: audienceCfg,
		cacheCfg:    cacheCfg,
		auditRepo:   auditRepo,
	}
}

// QueryAudience resolves one audience page. The upstream tiers are tried in
// order (segmented report, bucket contacts, raw campaign logs) and only when
// every tier is gone does the flow derive the audience client-side from the
// cached full recipient list. The processing order is fixed:
// filter -> dedupe -> search -> paginate.
func (s *AudienceFlowImpl) QueryAudience(ctx context.Context, req *dto.AudienceQueryRequest) (*dto.AudienceQueryResponse, error) {
	q, err := s.normalizeQuery(req)
	if err != nil {
		return nil, NewBusinessError("AUDIENCE_VALIDATION_FAILED", "Audience query validation failed", err)
	}

	// Tier A: segmented + paginated server-side.
	page, err := s.client.FetchSegmentedPage(ctx, q)
	if err == nil {
		items := eventsToDTO(DedupeEvents(page.Events))
		return s.buildResponse(req, q, items, page.TotalCount, page.Tier), nil
	}
	if !errors.Is(err, services.ErrEndpointGone) {
		return nil, NewBusinessError("AUDIENCE_FETCH_FAILED", "Failed to fetch audience", err)
	}

	// Tier B: segment-filtered but unpaged.
	page, err = s.client.FetchBucketContacts(ctx, q)
	if err == nil {
		events := DedupeEvents(page.Events)
		events = filterBySearch(events, q.Search)
		pageEvents, total := paginateEvents(events, q.Page, q.PageSize)
		return s.buildResponse(req, q, eventsToDTO(pageEvents), total, page.Tier), nil
	}
	if !errors.Is(err, services.ErrEndpointGone) {
		return nil, NewBusinessError("AUDIENCE_FETCH_FAILED", "Failed to fetch audience", err)
	}

	// Tier C: raw send-log rows, classified here.
	page, err = s.client.FetchCampaignLogs(ctx, q.CampaignID)
	if err == nil {
		items, total := s.deriveAudience(page.Events, q)
		return s.buildResponse(req, q, items, total, page.Tier), nil
	}
	if !errors.Is(err, services.ErrEndpointGone) {
		return nil, NewBusinessError("AUDIENCE_FETCH_FAILED", "Failed to fetch audience", err)
	}

	// Last resort: full recipient list, cached per campaign.
	recipients, err := s.loadRecipients(ctx, q.CampaignID)
	if err == nil {
		items, total := s.deriveAudience(recipients, q)
		return s.buildResponse(req, q, items, total, "derived"), nil
	}
	if !errors.Is(err, services.ErrEndpointGone) {
		return nil, NewBusinessError("AUDIENCE_FETCH_FAILED", "Failed to fetch audience", err)
	}

	// Every tier exhausted: degrade to an empty page with a warning rather
	// than failing the request.
	log.Println("No upstream endpoint can serve audience for campaign", q.CampaignID)
	s.auditUnavailable(ctx, req)
	resp := s.buildResponse(req, q, []dto.AudienceContactDTO{}, 0, "unavailable")
	resp.Message = "Audience data is unavailable for this campaign"
	return resp, nil
}

func (s *AudienceFlowImpl) normalizeQuery(req *dto.AudienceQueryRequest) (services.AudiencePageQuery, error) {
	if req.Page < 0 {
		return services.AudiencePageQuery{}, ErrInvalidPage
	}
	if req.PageSize < 0 || req.PageSize > utils.MaxAudiencePageSize {
		return services.AudiencePageQuery{}, ErrInvalidPageSize
	}

	q := services.AudiencePageQuery{
		CampaignID: req.CampaignID,
		Bucket:     models.AudienceBucket(strings.ToUpper(strings.TrimSpace(req.Bucket))),
		WindowDays: s.audienceCfg.DefaultWindowDays,
		Search:     strings.TrimSpace(req.Search),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	// An explicit zero turns the reply window off; only an absent value
	// falls back to the configured default.
	if req.WindowDays != nil {
		q.WindowDays = *req.WindowDays
	}
	if q.Bucket == "" {
		q.Bucket = models.BucketAllRecipients
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = s.audienceCfg.DefaultPageSize
	}
	return q, nil
}

// deriveAudience runs the full client-side pipeline over raw events.
func (s *AudienceFlowImpl) deriveAudience(events []*models.MessageEvent, q services.AudiencePageQuery) ([]dto.AudienceContactDTO, int64) {
	filtered := FilterByBucket(events, q.Bucket, q.WindowDays)
	deduped := DedupeEvents(filtered)
	searched := filterBySearch(deduped, q.Search)
	pageEvents, total := paginateEvents(searched, q.Page, q.PageSize)
	return eventsToDTO(pageEvents), total
}

// loadRecipients fetches the full recipient list, served from the per-campaign
// redis cache when possible. The cache is keyed by campaign ID only, so a
// campaign change never sees another campaign's list.
func (s *AudienceFlowImpl) loadRecipients(ctx context.Context, campaignID string) ([]*models.MessageEvent, error) {
	key := s.recipientsCacheKey(campaignID)

	if s.rc != nil && key != "" {
		if cached, err := s.rc.Get(ctx, key).Result(); err == nil {
			var events []*models.MessageEvent
			if err := json.Unmarshal([]byte(cached), &events); err == nil {
				return events, nil
			}
			// Corrupt cache entry, fall through to a fresh fetch.
		}
	}

	events, err := s.client.FetchRecipients(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if s.rc != nil && key != "" {
		if b, err := json.Marshal(events); err == nil {
			if err := s.rc.Set(ctx, key, b, s.recipientsCacheTTL()).Err(); err != nil {
				log.Println("Failed to cache recipients for campaign", campaignID, err)
			}
		}
	}
	return events, nil
}

func (s *AudienceFlowImpl) recipientsCacheTTL() time.Duration {
	if s.audienceCfg.RecipientsCacheTTL > 0 {
		return s.audienceCfg.RecipientsCacheTTL
	}
	if s.cacheCfg != nil && s.cacheCfg.DefaultTTL > 0 {
		return s.cacheCfg.DefaultTTL
	}
	return 10 * time.Minute
}

func (s *AudienceFlowImpl) recipientsCacheKey(campaignID string) string {
	if s.cacheCfg == nil || !s.cacheCfg.Enabled {
		return ""
	}
	return s.cacheCfg.RedisPrefix + "recipients:" + campaignID
}

func (s *AudienceFlowImpl) buildResponse(req *dto.AudienceQueryRequest, q services.AudiencePageQuery, items []dto.AudienceContactDTO, total int64, source string) *dto.AudienceQueryResponse {
	totalPages := 0
	if q.PageSize > 0 {
		totalPages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}
	return &dto.AudienceQueryResponse{
		Message:    "Audience retrieved successfully",
		CampaignID: req.CampaignID,
		Bucket:     q.Bucket.String(),
		Items:      items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       q.Page,
			PageSize:   q.PageSize,
			TotalPages: totalPages,
		},
		Source: source,
	}
}

func (s *AudienceFlowImpl) auditUnavailable(ctx context.Context, req *dto.AudienceQueryRequest) {
	if s.auditRepo == nil {
		return
	}
	desc := fmt.Sprintf("All upstream audience endpoints exhausted for campaign %s", req.CampaignID)
	entry := &models.AuditLog{
		Action:      models.AuditActionAudienceUnavailable,
		CampaignID:  &req.CampaignID,
		Description: &desc,
		Success:     utils.ToPtr(false),
	}
	if err := s.auditRepo.Save(ctx, entry); err != nil {
		log.Println("Failed to save audit log:", err)
	}
}

// filterBySearch applies a case-insensitive substring match over the
// concatenation of name, phone, and status. An empty needle is a no-op.
func filterBySearch(events []*models.MessageEvent, search string) []*models.MessageEvent {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return events
	}
	out := make([]*models.MessageEvent, 0, len(events))
	for _, ev := range events {
		haystack := strings.ToLower(ev.ContactName + " " + ev.Phone + " " + ev.SendStatus)
		if strings.Contains(haystack, needle) {
			out = append(out, ev)
		}
	}
	return out
}

// paginateEvents slices one 1-based page out of the filtered set. An
// out-of-range page yields an empty slice while the total still reflects the
// full filtered set.
func paginateEvents(events []*models.MessageEvent, page, pageSize int) ([]*models.MessageEvent, int64) {
	total := int64(len(events))
	if page < 1 || pageSize < 1 {
		return nil, total
	}
	start := (page - 1) * pageSize
	if start >= len(events) {
		return []*models.MessageEvent{}, total
	}
	end := start + pageSize
	if end > len(events) {
		end = len(events)
	}
	return events[start:end], total
}

func eventsToDTO(events []*models.MessageEvent) []dto.AudienceContactDTO {
	items := make([]dto.AudienceContactDTO, 0, len(events))
	for _, ev := range events {
		items = append(items, dto.AudienceContactDTO{
			ContactKey:     ev.ContactKey,
			Name:           ev.ContactName,
			Phone:          ev.Phone,
			Status:         ev.SendStatus,
			LastActivityAt: ev.LastActivityAt(),
			ErrorMessage:   ev.ErrorMessage,
		})
	}
	return items
}
