package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEventAliasResolution(t *testing.T) {
	t.Run("CamelCase", func(t *testing.T) {
		ev := NormalizeEvent(map[string]any{
			"contactId":   "c-1",
			"contactName": "Alice",
			"phone":       "+15550001",
			"sendStatus":  "DELIVERED",
			"isClicked":   true,
			"clickType":   "url",
		})
		require.NotNil(t, ev)
		assert.Equal(t, "c-1", ev.ContactKey)
		assert.Equal(t, "Alice", ev.ContactName)
		assert.Equal(t, "+15550001", ev.Phone)
		assert.Equal(t, "DELIVERED", ev.SendStatus)
		assert.True(t, ev.IsClicked)
		assert.Equal(t, "url", ev.ClickType)
	})

	t.Run("PascalCase", func(t *testing.T) {
		ev := NormalizeEvent(map[string]any{
			"ContactId":    "c-2",
			"Name":         "Bob",
			"Status":       "READ",
			"IsClicked":    "true",
			"ReadAt":       "2024-03-01T10:00:00Z",
			"ErrorMessage": "",
		})
		require.NotNil(t, ev)
		assert.Equal(t, "c-2", ev.ContactKey)
		assert.Equal(t, "Bob", ev.ContactName)
		assert.Equal(t, "READ", ev.SendStatus)
		assert.True(t, ev.IsClicked)
		require.NotNil(t, ev.ReadAt)
	})

	t.Run("ContactKeyPriority", func(t *testing.T) {
		// contactId beats recipientNumber beats row id.
		ev := NormalizeEvent(map[string]any{
			"contactId":       "c-9",
			"recipientNumber": "+15550009",
			"id":              float64(17),
		})
		require.NotNil(t, ev)
		assert.Equal(t, "c-9", ev.ContactKey)

		ev = NormalizeEvent(map[string]any{
			"recipientNumber": "+15550009",
			"id":              float64(17),
		})
		require.NotNil(t, ev)
		assert.Equal(t, "+15550009", ev.ContactKey)

		ev = NormalizeEvent(map[string]any{"id": float64(17)})
		require.NotNil(t, ev)
		assert.Equal(t, "17", ev.ContactKey)
	})

	t.Run("KeylessRowDropped", func(t *testing.T) {
		assert.Nil(t, NormalizeEvent(map[string]any{"name": "Ghost", "status": "SENT"}))
		assert.Nil(t, NormalizeEvent(nil))
	})

	t.Run("LastUpdatedFallsBackToUpdatedAt", func(t *testing.T) {
		ev := NormalizeEvent(map[string]any{
			"contactId": "c-1",
			"updatedAt": "2024-03-01T10:00:00Z",
		})
		require.NotNil(t, ev)
		require.NotNil(t, ev.LastUpdatedAt)
	})
}

func TestNormalizeEventsDropsKeyless(t *testing.T) {
	events := NormalizeEvents([]map[string]any{
		{"contactId": "c-1"},
		{"name": "keyless"},
		{"to": "+15550002"},
	})
	require.Len(t, events, 2)
	assert.Equal(t, "c-1", events[0].ContactKey)
	assert.Equal(t, "+15550002", events[1].ContactKey)
}

func TestExtractRowsEnvelopeAliases(t *testing.T) {
	row := map[string]any{"contactId": "c-1"}

	for _, key := range []string{"items", "Items", "contacts", "Contacts", "rows", "Rows"} {
		rows := ExtractRows(map[string]any{key: []any{row}})
		require.Len(t, rows, 1, "envelope key %q", key)
		assert.Equal(t, "c-1", rows[0]["contactId"])
	}

	assert.Nil(t, ExtractRows(map[string]any{"data": []any{row}}))
	assert.Nil(t, ExtractRows(map[string]any{"items": "not-a-list"}))
}

func TestExtractTotalEnvelopeAliases(t *testing.T) {
	assert.Equal(t, int64(42), ExtractTotal(map[string]any{"totalCount": float64(42)}, 0))
	assert.Equal(t, int64(42), ExtractTotal(map[string]any{"Total": float64(42)}, 0))
	assert.Equal(t, int64(42), ExtractTotal(map[string]any{"count": "42"}, 0))
	// Falls back to the row count when no alias is present.
	assert.Equal(t, int64(7), ExtractTotal(map[string]any{}, 7))
	assert.Equal(t, int64(7), ExtractTotal(map[string]any{"totalCount": "not-a-number"}, 7))
}

func TestParseTimestampLayouts(t *testing.T) {
	cases := map[string]string{
		"2024-03-01T10:00:00.123456789Z": "RFC3339Nano",
		"2024-03-01T10:00:00Z":           "RFC3339",
		"2024-03-01T10:00:00":            "naive T",
		"2024-03-01 10:00:00":            "naive space",
		"2024-03-01":                     "date only",
	}
	for input, label := range cases {
		parsed := ParseTimestamp(input)
		require.NotNil(t, parsed, label)
		assert.Equal(t, 2024, parsed.Year(), label)
		assert.Equal(t, time.March, parsed.Month(), label)
	}

	t.Run("UnparseableYieldsNil", func(t *testing.T) {
		assert.Nil(t, ParseTimestamp("yesterday"))
		assert.Nil(t, ParseTimestamp(""))
		assert.Nil(t, ParseTimestamp("  "))
		assert.Nil(t, ParseTimestamp("01/03/2024"))
	})

	t.Run("NormalizedToUTC", func(t *testing.T) {
		parsed := ParseTimestamp("2024-03-01T12:00:00+03:30")
		require.NotNil(t, parsed)
		assert.Equal(t, time.UTC, parsed.Location())
		assert.Equal(t, 8, parsed.Hour())
		assert.Equal(t, 30, parsed.Minute())
	})
}
