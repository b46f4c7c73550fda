package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/config"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/utils"
)

// Upstream endpoint tiers, tried in order. The campaign backend has migrated
// its reporting routes more than once; old tiers 404 on new deployments and
// new tiers 404 on old ones, so each tier is probed once per campaign and a
// 404/405 permanently disables it for the process lifetime.
const (
	TierAudienceReport = "audience-report"
	TierBucketContacts = "bucket-contacts"
	TierCampaignLogs   = "campaign-logs"
	TierRecipients     = "recipients"
)

// ErrEndpointGone reports that an upstream tier answered 404/405 and has been
// disabled. It is an expected, silent signal for the fallback chain, never a
// user-facing failure.
var ErrEndpointGone = errors.New("upstream endpoint not available")

var upstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "upstream_campaign_requests_total",
		Help: "Total upstream campaign API requests partitioned by tier and outcome",
	},
	[]string{"tier", "outcome"},
)

// UpstreamError is any unexpected upstream response (anything other than
// success or the 404/405 tier signal).
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// AudiencePageQuery describes one audience fetch against the upstream API.
type AudiencePageQuery struct {
	CampaignID string
	Bucket     models.AudienceBucket
	WindowDays int
	Search     string
	Page       int
	PageSize   int
}

// AudiencePage is a normalized slice of delivery events from one tier.
type AudiencePage struct {
	Events     []*models.MessageEvent
	TotalCount int64
	Tier       string
	// ServerPaged reports whether the upstream already applied pagination;
	// when false the caller owns filtering and slicing.
	ServerPaged bool
}

// CampaignDetail is the subset of upstream campaign fields the retarget and
// audience flows need.
type CampaignDetail struct {
	ID            string
	Name          string
	Status        string
	Provider      string
	PhoneNumberID string
}

// CampaignLogClient reads per-recipient delivery events from the upstream
// campaign API and submits retarget campaigns to it.
type CampaignLogClient interface {
	// FetchSegmentedPage queries the preferred segmented+paginated reporting
	// endpoint (tier A).
	FetchSegmentedPage(ctx context.Context, q AudiencePageQuery) (*AudiencePage, error)
	// FetchBucketContacts queries the legacy bucket-contacts endpoint
	// (tier B); results are segment-filtered but not paginated.
	FetchBucketContacts(ctx context.Context, q AudiencePageQuery) (*AudiencePage, error)
	// FetchCampaignLogs returns the raw, unfiltered send-log rows (tier C).
	FetchCampaignLogs(ctx context.Context, campaignID string) (*AudiencePage, error)
	// FetchRecipients returns the full recipient list for client-side
	// derivation (last resort).
	FetchRecipients(ctx context.Context, campaignID string) ([]*models.MessageEvent, error)
	// FetchCampaign returns campaign metadata (name, status, sender).
	FetchCampaign(ctx context.Context, campaignID string) (*CampaignDetail, error)
	// SubmitRetarget posts a retarget campaign creation payload and returns
	// the new campaign ID.
	SubmitRetarget(ctx context.Context, payload map[string]any) (string, error)
}

// HTTPCampaignLogClient implements CampaignLogClient against the configured
// upstream base URL.
type HTTPCampaignLogClient struct {
	cfg    config.UpstreamConfig
	client *http.Client

	mu       sync.Mutex
	disabled map[string]bool // campaignID|tier -> permanently disabled
}

// NewCampaignLogClient creates a new upstream campaign API client.
func NewCampaignLogClient(cfg config.UpstreamConfig) *HTTPCampaignLogClient {
	return &HTTPCampaignLogClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		disabled: make(map[string]bool),
	}
}

func (c *HTTPCampaignLogClient) tierDisabled(campaignID, tier string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[campaignID+"|"+tier]
}

func (c *HTTPCampaignLogClient) disableTier(campaignID, tier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled[campaignID+"|"+tier] = true
}

// FetchSegmentedPage queries tier A.
func (c *HTTPCampaignLogClient) FetchSegmentedPage(ctx context.Context, q AudiencePageQuery) (*AudiencePage, error) {
	params := url.Values{}
	params.Set("segment", q.Bucket.String())
	params.Set("windowDays", strconv.Itoa(q.WindowDays))
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))

	path := fmt.Sprintf("/campaigns/%s/reports/audience", url.PathEscape(q.CampaignID))
	envelope, err := c.getEnvelope(ctx, q.CampaignID, TierAudienceReport, path, params)
	if err != nil {
		return nil, err
	}

	rows := ExtractRows(envelope)
	events := NormalizeEvents(rows)
	return &AudiencePage{
		Events:      events,
		TotalCount:  ExtractTotal(envelope, int64(len(events))),
		Tier:        TierAudienceReport,
		ServerPaged: true,
	}, nil
}

// FetchBucketContacts queries tier B.
func (c *HTTPCampaignLogClient) FetchBucketContacts(ctx context.Context, q AudiencePageQuery) (*AudiencePage, error) {
	params := url.Values{}
	params.Set("bucket", q.Bucket.String())
	params.Set("windowDays", strconv.Itoa(q.WindowDays))
	if q.Search != "" {
		params.Set("q", q.Search)
	}

	path := fmt.Sprintf("/campaigntracking/campaigns/%s/bucket-contacts", url.PathEscape(q.CampaignID))
	envelope, err := c.getEnvelope(ctx, q.CampaignID, TierBucketContacts, path, params)
	if err != nil {
		return nil, err
	}

	rows := ExtractRows(envelope)
	events := NormalizeEvents(rows)
	return &AudiencePage{
		Events:      events,
		TotalCount:  ExtractTotal(envelope, int64(len(events))),
		Tier:        TierBucketContacts,
		ServerPaged: false,
	}, nil
}

// FetchCampaignLogs queries tier C.
func (c *HTTPCampaignLogClient) FetchCampaignLogs(ctx context.Context, campaignID string) (*AudiencePage, error) {
	path := fmt.Sprintf("/campaign-logs/campaign/%s", url.PathEscape(campaignID))
	envelope, err := c.getEnvelope(ctx, campaignID, TierCampaignLogs, path, nil)
	if err != nil {
		return nil, err
	}

	rows := ExtractRows(envelope)
	events := NormalizeEvents(rows)
	return &AudiencePage{
		Events:      events,
		TotalCount:  ExtractTotal(envelope, int64(len(events))),
		Tier:        TierCampaignLogs,
		ServerPaged: false,
	}, nil
}

// FetchRecipients returns the full recipient list for a campaign.
func (c *HTTPCampaignLogClient) FetchRecipients(ctx context.Context, campaignID string) ([]*models.MessageEvent, error) {
	path := fmt.Sprintf("/campaigns/%s/recipients", url.PathEscape(campaignID))
	envelope, err := c.getEnvelope(ctx, campaignID, TierRecipients, path, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeEvents(ExtractRows(envelope)), nil
}

// FetchCampaign returns upstream campaign metadata.
func (c *HTTPCampaignLogClient) FetchCampaign(ctx context.Context, campaignID string) (*CampaignDetail, error) {
	body, status, err := c.doRequest(ctx, http.MethodGet, "/campaigns/"+url.PathEscape(campaignID), nil, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &UpstreamError{StatusCode: status, Message: extractUpstreamMessage(body)}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode campaign response: %w", err)
	}
	// Some backend generations wrap the campaign under a data object.
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	} else if inner, ok := raw["Data"].(map[string]any); ok {
		raw = inner
	}

	return &CampaignDetail{
		ID:            campaignID,
		Name:          firstString(raw, "name", "Name", "campaignName", "CampaignName", "title", "Title"),
		Status:        firstString(raw, "status", "Status"),
		Provider:      firstString(raw, "provider", "Provider"),
		PhoneNumberID: firstString(raw, "phoneNumberId", "PhoneNumberId", "phoneNumberID", "PhoneNumberID"),
	}, nil
}

// SubmitRetarget posts the retarget payload and returns the new campaign ID.
func (c *HTTPCampaignLogClient) SubmitRetarget(ctx context.Context, payload map[string]any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal retarget payload: %w", err)
	}

	body, status, err := c.doRequest(ctx, http.MethodPost, "/campaigns/retarget", nil, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &UpstreamError{StatusCode: status, Message: extractUpstreamMessage(body)}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("failed to decode retarget response: %w", err)
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	} else if inner, ok := raw["Data"].(map[string]any); ok {
		raw = inner
	}
	return firstString(raw, "newCampaignId", "NewCampaignId", "new_campaign_id", "id", "Id"), nil
}

// getEnvelope performs a tier GET and decodes the response into an envelope
// map. Top-level JSON arrays are wrapped into an items envelope so callers
// only deal with one shape. 404/405 disables the tier for this campaign.
func (c *HTTPCampaignLogClient) getEnvelope(ctx context.Context, campaignID, tier, path string, params url.Values) (map[string]any, error) {
	if c.tierDisabled(campaignID, tier) {
		return nil, ErrEndpointGone
	}

	body, status, err := c.doRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(tier, "error").Inc()
		return nil, err
	}

	if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
		c.disableTier(campaignID, tier)
		upstreamRequestsTotal.WithLabelValues(tier, "gone").Inc()
		return nil, ErrEndpointGone
	}
	if status < 200 || status >= 300 {
		upstreamRequestsTotal.WithLabelValues(tier, "error").Inc()
		return nil, &UpstreamError{StatusCode: status, Message: extractUpstreamMessage(body)}
	}

	upstreamRequestsTotal.WithLabelValues(tier, "ok").Inc()

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", tier, err)
	}
	switch v := decoded.(type) {
	case map[string]any:
		return v, nil
	case []any:
		return map[string]any{"items": v}, nil
	default:
		return map[string]any{}, nil
	}
}

func (c *HTTPCampaignLogClient) doRequest(ctx context.Context, method, path string, params url.Values, body io.Reader) ([]byte, int, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read upstream response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// extractUpstreamMessage pulls a human-readable message out of an upstream
// error body: message field first, then a bare JSON string, then the raw
// body, always truncated for display.
func extractUpstreamMessage(body []byte) string {
	msg := ""

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		switch v := decoded.(type) {
		case map[string]any:
			msg = firstString(v, "message", "Message", "error", "Error", "detail", "Detail")
			if msg == "" {
				msg = string(body)
			}
		case string:
			msg = v
		default:
			msg = string(body)
		}
	} else {
		msg = string(body)
	}

	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "upstream request failed"
	}
	if len(msg) > utils.UpstreamErrorMessageLimit {
		msg = msg[:utils.UpstreamErrorMessageLimit]
	}
	return msg
}
