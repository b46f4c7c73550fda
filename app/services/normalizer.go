// Package services provides external service integrations and technical concerns for the campaign reporting system
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
)

// The upstream campaign API has gone through several backend generations and
// its field naming is inconsistent (PascalCase vs camelCase, and a few
// renames). Normalization happens exactly once, here, with explicit alias
// lists per field; everything downstream sees models.MessageEvent only.

var (
	contactKeyAliases = [][]string{
		{"contactId", "ContactId", "contactID", "ContactID"},
		{"contactPhone", "ContactPhone"},
		{"recipientNumber", "RecipientNumber"},
		{"to", "To"},
		{"id", "Id", "ID"},
	}

	nameAliases       = []string{"contactName", "ContactName", "name", "Name"}
	phoneAliases      = []string{"phone", "Phone", "contactPhone", "ContactPhone", "recipientNumber", "RecipientNumber", "to", "To"}
	statusAliases     = []string{"sendStatus", "SendStatus", "status", "Status"}
	errMessageAliases = []string{"errorMessage", "ErrorMessage", "error", "Error"}
	clickTypeAliases  = []string{"clickType", "ClickType"}
	isClickedAliases  = []string{"isClicked", "IsClicked"}

	sentAtAliases      = []string{"sentAt", "SentAt"}
	deliveredAtAliases = []string{"deliveredAt", "DeliveredAt"}
	readAtAliases      = []string{"readAt", "ReadAt"}
	clickedAtAliases   = []string{"clickedAt", "ClickedAt"}
	repliedAtAliases   = []string{"repliedAt", "RepliedAt"}
	updatedAtAliases   = []string{"lastUpdatedAt", "LastUpdatedAt", "updatedAt", "UpdatedAt"}
	createdAtAliases   = []string{"createdAt", "CreatedAt"}

	rowsAliases  = []string{"items", "Items", "contacts", "Contacts", "rows", "Rows"}
	totalAliases = []string{"totalCount", "TotalCount", "total", "Total", "count", "Count"}
)

// timestampLayouts are tried in order when parsing upstream timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeEvent maps one raw upstream row onto the canonical event shape.
// Returns nil when no contact key can be derived; such rows cannot be
// deduplicated or selected for retarget and are dropped before
// classification.
func NormalizeEvent(raw map[string]any) *models.MessageEvent {
	if raw == nil {
		return nil
	}

	key := ""
	for _, group := range contactKeyAliases {
		if v := firstString(raw, group...); v != "" {
			key = v
			break
		}
	}
	if key == "" {
		return nil
	}

	return &models.MessageEvent{
		ContactKey:    key,
		ContactName:   firstString(raw, nameAliases...),
		Phone:         firstString(raw, phoneAliases...),
		SendStatus:    firstString(raw, statusAliases...),
		SentAt:        firstTime(raw, sentAtAliases...),
		DeliveredAt:   firstTime(raw, deliveredAtAliases...),
		ReadAt:        firstTime(raw, readAtAliases...),
		ClickedAt:     firstTime(raw, clickedAtAliases...),
		RepliedAt:     firstTime(raw, repliedAtAliases...),
		LastUpdatedAt: firstTime(raw, updatedAtAliases...),
		CreatedAt:     firstTime(raw, createdAtAliases...),
		IsClicked:     firstBool(raw, isClickedAliases...),
		ClickType:     firstString(raw, clickTypeAliases...),
		ErrorMessage:  firstString(raw, errMessageAliases...),
	}
}

// NormalizeEvents maps a list of raw rows, dropping those without a
// resolvable contact key.
func NormalizeEvents(rows []map[string]any) []*models.MessageEvent {
	events := make([]*models.MessageEvent, 0, len(rows))
	for _, row := range rows {
		if ev := NormalizeEvent(row); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

// ExtractRows pulls the row list out of an upstream response envelope,
// tolerating the known alias set. A top-level JSON array decodes to no
// envelope at all; callers handle that case before this one.
func ExtractRows(envelope map[string]any) []map[string]any {
	for _, key := range rowsAliases {
		v, ok := envelope[key]
		if !ok || v == nil {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		rows := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, m)
			}
		}
		return rows
	}
	return nil
}

// ExtractTotal pulls the total count out of an upstream response envelope,
// falling back to the provided value when no alias is present.
func ExtractTotal(envelope map[string]any, fallback int64) int64 {
	for _, key := range totalAliases {
		v, ok := envelope[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int64:
			return n
		case string:
			if parsed, ok := parseInt(n); ok {
				return parsed
			}
		}
	}
	return fallback
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		case float64:
			// Numeric IDs arrive as JSON numbers.
			if s == float64(int64(s)) {
				return fmt.Sprintf("%d", int64(s))
			}
			return fmt.Sprintf("%v", s)
		case bool:
			return fmt.Sprintf("%t", s)
		}
	}
	return ""
}

func firstBool(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case string:
			return strings.EqualFold(strings.TrimSpace(b), "true")
		case float64:
			return b != 0
		}
	}
	return false
}

func firstTime(raw map[string]any, keys ...string) *time.Time {
	if s := firstString(raw, keys...); s != "" {
		return ParseTimestamp(s)
	}
	return nil
}

// ParseTimestamp parses an upstream timestamp string. Returns nil when no
// known layout matches; downstream classification fails open on nil values.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

func parseInt(s string) (int64, bool) {
	var n int64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}
