package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplorebytesolutions/growmycustomer-campaigns/config"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/utils"
)

func newTestClient(serverURL string) *HTTPCampaignLogClient {
	return NewCampaignLogClient(config.UpstreamConfig{
		BaseURL:   serverURL,
		APIKey:    "test-key",
		UserAgent: "growmycustomer-campaigns-test",
		Timeout:   5 * time.Second,
	})
}

func TestFetchSegmentedPageParsesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/cmp-1/reports/audience", r.URL.Path)
		assert.Equal(t, "READ_NOT_REPLIED", r.URL.Query().Get("segment"))
		assert.Equal(t, "7", r.URL.Query().Get("windowDays"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "25", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "growmycustomer-campaigns-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"contactId": "c-1", "contactName": "Alice", "sendStatus": "READ"},
				{"contactId": "c-2", "contactName": "Bob", "sendStatus": "READ"}
			],
			"totalCount": 57
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchSegmentedPage(context.Background(), AudiencePageQuery{
		CampaignID: "cmp-1",
		Bucket:     models.BucketReadNotReplied,
		WindowDays: 7,
		Page:       2,
		PageSize:   25,
	})
	require.NoError(t, err)
	assert.Equal(t, TierAudienceReport, page.Tier)
	assert.True(t, page.ServerPaged)
	assert.Equal(t, int64(57), page.TotalCount)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "c-1", page.Events[0].ContactKey)
}

func TestFetchCampaignLogsWrapsTopLevelArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaign-logs/campaign/cmp-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"ContactId": "c-1", "Status": "FAILED"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchCampaignLogs(context.Background(), "cmp-1")
	require.NoError(t, err)
	assert.Equal(t, TierCampaignLogs, page.Tier)
	assert.False(t, page.ServerPaged)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "c-1", page.Events[0].ContactKey)
	assert.Equal(t, int64(1), page.TotalCount)
}

func TestGoneTierIsDisabledAndNotReprobed(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	q := AudiencePageQuery{CampaignID: "cmp-1", Bucket: models.BucketFailed, Page: 1, PageSize: 50}

	_, err := client.FetchSegmentedPage(context.Background(), q)
	require.ErrorIs(t, err, ErrEndpointGone)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// The tier stays disabled for this campaign without another probe.
	_, err = client.FetchSegmentedPage(context.Background(), q)
	require.ErrorIs(t, err, ErrEndpointGone)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// Other campaigns still get their own probe.
	q2 := q
	q2.CampaignID = "cmp-2"
	_, err = client.FetchSegmentedPage(context.Background(), q2)
	require.ErrorIs(t, err, ErrEndpointGone)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestMethodNotAllowedAlsoDisablesTier(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchBucketContacts(context.Background(), AudiencePageQuery{CampaignID: "cmp-1", Bucket: models.BucketFailed})
	require.ErrorIs(t, err, ErrEndpointGone)
	_, err = client.FetchBucketContacts(context.Background(), AudiencePageQuery{CampaignID: "cmp-1", Bucket: models.BucketFailed})
	require.ErrorIs(t, err, ErrEndpointGone)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestServerErrorIsNotGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message": "upstream database unavailable"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchCampaignLogs(context.Background(), "cmp-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEndpointGone)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusBadGateway, upstreamErr.StatusCode)
	assert.Equal(t, "upstream database unavailable", upstreamErr.Message)
}

func TestFetchCampaignUnwrapsDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/cmp-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"name": "Spring Sale", "status": "SENT", "provider": "meta", "phoneNumberId": "pn-7"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	detail, err := client.FetchCampaign(context.Background(), "cmp-1")
	require.NoError(t, err)
	assert.Equal(t, "cmp-1", detail.ID)
	assert.Equal(t, "Spring Sale", detail.Name)
	assert.Equal(t, "SENT", detail.Status)
	assert.Equal(t, "meta", detail.Provider)
	assert.Equal(t, "pn-7", detail.PhoneNumberID)
}

func TestSubmitRetargetReturnsNewCampaignID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/campaigns/retarget", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"newCampaignId": "cmp-new-1"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	id, err := client.SubmitRetarget(context.Background(), map[string]any{"campaignName": "Retarget of Spring Sale"})
	require.NoError(t, err)
	assert.Equal(t, "cmp-new-1", id)
}

func TestSubmitRetargetUpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "template not approved"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SubmitRetarget(context.Background(), map[string]any{})
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnprocessableEntity, upstreamErr.StatusCode)
	assert.Equal(t, "template not approved", upstreamErr.Message)
}

func TestExtractUpstreamMessage(t *testing.T) {
	t.Run("MessageField", func(t *testing.T) {
		assert.Equal(t, "boom", extractUpstreamMessage([]byte(`{"message": "boom"}`)))
		assert.Equal(t, "boom", extractUpstreamMessage([]byte(`{"Error": "boom"}`)))
	})

	t.Run("BareJSONString", func(t *testing.T) {
		assert.Equal(t, "boom", extractUpstreamMessage([]byte(`"boom"`)))
	})

	t.Run("RawBodyFallback", func(t *testing.T) {
		assert.Equal(t, "<html>502</html>", extractUpstreamMessage([]byte("<html>502</html>")))
	})

	t.Run("EmptyBody", func(t *testing.T) {
		assert.Equal(t, "upstream request failed", extractUpstreamMessage(nil))
		assert.Equal(t, "upstream request failed", extractUpstreamMessage([]byte("   ")))
	})

	t.Run("Truncated", func(t *testing.T) {
		long := strings.Repeat("x", utils.UpstreamErrorMessageLimit+100)
		got := extractUpstreamMessage([]byte(long))
		assert.Len(t, got, utils.UpstreamErrorMessageLimit)
	})
}
