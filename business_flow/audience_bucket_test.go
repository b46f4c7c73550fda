package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return &parsed
}

func TestClassifyDeliveredNotRead(t *testing.T) {
	ev := &models.MessageEvent{
		ContactKey:  "c-1",
		SendStatus:  "DELIVERED",
		DeliveredAt: ts(t, "2024-01-01T00:00:00Z"),
	}

	assert.True(t, Classify(ev, models.BucketDeliveredNotRead, 0))
	assert.False(t, Classify(ev, models.BucketReadNotReplied, 0))

	t.Run("ReadEventExcluded", func(t *testing.T) {
		read := &models.MessageEvent{
			ContactKey:  "c-2",
			SendStatus:  "READ",
			DeliveredAt: ts(t, "2024-01-01T00:00:00Z"),
			ReadAt:      ts(t, "2024-01-02T00:00:00Z"),
		}
		assert.False(t, Classify(read, models.BucketDeliveredNotRead, 0))
		assert.True(t, Classify(read, models.BucketReadNotReplied, 0))
	})
}

func TestClassifyDeliveredNotReplied(t *testing.T) {
	delivered := &models.MessageEvent{
		ContactKey:  "c-1",
		SendStatus:  "DELIVERED",
		DeliveredAt: ts(t, "2024-01-01T00:00:00Z"),
		ReadAt:      ts(t, "2024-01-02T00:00:00Z"),
	}
	// Read but unreplied still counts for the bucket-contacts variant.
	assert.True(t, Classify(delivered, models.BucketDeliveredNotReplied, 0))

	replied := &models.MessageEvent{
		ContactKey:  "c-2",
		SendStatus:  "DELIVERED",
		DeliveredAt: ts(t, "2024-01-01T00:00:00Z"),
		RepliedAt:   ts(t, "2024-01-03T00:00:00Z"),
	}
	assert.False(t, Classify(replied, models.BucketDeliveredNotReplied, 0))
}

func TestClassifyFailed(t *testing.T) {
	t.Run("StatusAloneSuffices", func(t *testing.T) {
		ev := &models.MessageEvent{ContactKey: "c-1", SendStatus: "FAILED"}
		assert.True(t, Classify(ev, models.BucketFailed, 0))
	})

	t.Run("ErrorMessageAloneSuffices", func(t *testing.T) {
		ev := &models.MessageEvent{ContactKey: "c-2", SendStatus: "SENT", ErrorMessage: "number unreachable"}
		assert.True(t, Classify(ev, models.BucketFailed, 0))
	})

	t.Run("SubstringMatch", func(t *testing.T) {
		ev := &models.MessageEvent{ContactKey: "c-3", SendStatus: "delivery_failed"}
		assert.True(t, Classify(ev, models.BucketFailed, 0))
	})

	t.Run("CleanEventExcluded", func(t *testing.T) {
		ev := &models.MessageEvent{ContactKey: "c-4", SendStatus: "DELIVERED"}
		assert.False(t, Classify(ev, models.BucketFailed, 0))
	})
}

func TestClassifyClickedNotReplied(t *testing.T) {
	clicked := &models.MessageEvent{ContactKey: "c-1", SendStatus: "READ", IsClicked: true}
	assert.True(t, Classify(clicked, models.BucketClickedNotReplied, 0))

	byClickType := &models.MessageEvent{ContactKey: "c-2", SendStatus: "READ", ClickType: "url"}
	assert.True(t, Classify(byClickType, models.BucketClickedNotReplied, 0))

	repliedAfterClick := &models.MessageEvent{ContactKey: "c-3", SendStatus: "REPLIED", IsClicked: true}
	assert.False(t, Classify(repliedAfterClick, models.BucketClickedNotReplied, 0))
}

func TestClassifyRepliedWindow(t *testing.T) {
	ev := &models.MessageEvent{
		ContactKey: "c-1",
		SendStatus: "REPLIED",
		SentAt:     ts(t, "2024-01-01T00:00:00Z"),
		RepliedAt:  ts(t, "2024-01-10T00:00:00Z"),
	}

	t.Run("OutsideWindow", func(t *testing.T) {
		assert.False(t, Classify(ev, models.BucketReplied, 7))
	})

	t.Run("WindowDisabled", func(t *testing.T) {
		assert.True(t, Classify(ev, models.BucketReplied, 0))
	})

	t.Run("InsideWindow", func(t *testing.T) {
		assert.True(t, Classify(ev, models.BucketReplied, 30))
	})

	t.Run("ReplyTimeFallsBackToLastUpdated", func(t *testing.T) {
		late := &models.MessageEvent{
			ContactKey:    "c-2",
			SendStatus:    "REPLIED",
			SentAt:        ts(t, "2024-01-01T00:00:00Z"),
			LastUpdatedAt: ts(t, "2024-01-10T00:00:00Z"),
		}
		assert.False(t, Classify(late, models.BucketReplied, 7))
	})

	t.Run("MissingTimestampsFailOpen", func(t *testing.T) {
		noSent := &models.MessageEvent{
			ContactKey: "c-3",
			SendStatus: "REPLIED",
			RepliedAt:  ts(t, "2024-01-10T00:00:00Z"),
		}
		assert.True(t, Classify(noSent, models.BucketReplied, 7))

		noTimes := &models.MessageEvent{ContactKey: "c-4", SendStatus: "REPLIED"}
		assert.True(t, Classify(noTimes, models.BucketReplied, 7))
	})
}

func TestClassifyFailOpenOnUnknownBucket(t *testing.T) {
	events := []*models.MessageEvent{
		{ContactKey: "c-1", SendStatus: "SENT"},
		{ContactKey: "c-2", SendStatus: "FAILED"},
		{ContactKey: "c-3", SendStatus: "REPLIED", RepliedAt: ts(t, "2024-01-10T00:00:00Z")},
	}
	for _, ev := range events {
		assert.True(t, Classify(ev, models.AudienceBucket("NOT_A_REAL_SEGMENT"), 7))
	}
	assert.True(t, Classify(events[0], models.BucketAllRecipients, 7))
}

func TestClassifyDeterministic(t *testing.T) {
	ev := &models.MessageEvent{
		ContactKey: "c-1",
		SendStatus: "REPLIED",
		SentAt:     ts(t, "2024-01-01T00:00:00Z"),
		RepliedAt:  ts(t, "2024-01-05T00:00:00Z"),
	}
	first := Classify(ev, models.BucketReplied, 7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(ev, models.BucketReplied, 7))
	}
}

func TestClassifyNilEvent(t *testing.T) {
	assert.False(t, Classify(nil, models.BucketAllRecipients, 0))
}

func TestFilterByBucketPreservesOrder(t *testing.T) {
	events := []*models.MessageEvent{
		{ContactKey: "a", SendStatus: "FAILED"},
		{ContactKey: "b", SendStatus: "DELIVERED", DeliveredAt: ts(t, "2024-01-01T00:00:00Z")},
		{ContactKey: "c", SendStatus: "FAILED"},
	}

	failed := FilterByBucket(events, models.BucketFailed, 0)
	require.Len(t, failed, 2)
	assert.Equal(t, "a", failed[0].ContactKey)
	assert.Equal(t, "c", failed[1].ContactKey)
}
