package services

import (
	"context"
	"sync"

	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
)

// MockCampaignLogClient implements CampaignLogClient for testing
type MockCampaignLogClient struct {
	mu sync.Mutex

	SegmentedPage *AudiencePage
	SegmentedErr  error

	BucketPage *AudiencePage
	BucketErr  error

	LogsPage *AudiencePage
	LogsErr  error

	Recipients    []*models.MessageEvent
	RecipientsErr error

	Campaign    *CampaignDetail
	CampaignErr error

	RetargetID  string
	RetargetErr error

	SegmentedCalls  int
	BucketCalls     int
	LogsCalls       int
	RecipientsCalls int

	SubmittedPayloads []map[string]any
}

// NewMockCampaignLogClient creates a mock client with every tier unavailable
// by default; tests enable the tiers they need.
func NewMockCampaignLogClient() *MockCampaignLogClient {
	return &MockCampaignLogClient{
		SegmentedErr:  ErrEndpointGone,
		BucketErr:     ErrEndpointGone,
		LogsErr:       ErrEndpointGone,
		RecipientsErr: ErrEndpointGone,
	}
}

func (m *MockCampaignLogClient) FetchSegmentedPage(_ context.Context, _ AudiencePageQuery) (*AudiencePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SegmentedCalls++
	if m.SegmentedErr != nil {
		return nil, m.SegmentedErr
	}
	return m.SegmentedPage, nil
}

func (m *MockCampaignLogClient) FetchBucketContacts(_ context.Context, _ AudiencePageQuery) (*AudiencePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BucketCalls++
	if m.BucketErr != nil {
		return nil, m.BucketErr
	}
	return m.BucketPage, nil
}

func (m *MockCampaignLogClient) FetchCampaignLogs(_ context.Context, _ string) (*AudiencePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogsCalls++
	if m.LogsErr != nil {
		return nil, m.LogsErr
	}
	return m.LogsPage, nil
}

func (m *MockCampaignLogClient) FetchRecipients(_ context.Context, _ string) ([]*models.MessageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecipientsCalls++
	if m.RecipientsErr != nil {
		return nil, m.RecipientsErr
	}
	return m.Recipients, nil
}

func (m *MockCampaignLogClient) FetchCampaign(_ context.Context, campaignID string) (*CampaignDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CampaignErr != nil {
		return nil, m.CampaignErr
	}
	if m.Campaign != nil {
		return m.Campaign, nil
	}
	return &CampaignDetail{ID: campaignID, Status: "SENT"}, nil
}

func (m *MockCampaignLogClient) SubmitRetarget(_ context.Context, payload map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RetargetErr != nil {
		return "", m.RetargetErr
	}
	m.SubmittedPayloads = append(m.SubmittedPayloads, payload)
	return m.RetargetID, nil
}
