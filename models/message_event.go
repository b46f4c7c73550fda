// Package models contains domain entities and business models for the campaign reporting system
package models

import (
	"time"
)

// MessageEvent is the canonical per-recipient delivery event for a campaign.
// Rows arrive from the upstream campaign API under historically inconsistent
// field names; the services layer normalizes them into this shape once, and
// everything downstream (classification, dedup, pagination, export) operates
// on it only.
type MessageEvent struct {
	// ContactKey is the stable identity of the recipient, derived at
	// normalization time from contact ID, contact phone, recipient number,
	// "to", or the row ID, in that order. Rows with no resolvable key are
	// dropped before classification.
	ContactKey string `json:"contact_key"`

	// Display fields, independent of ContactKey.
	ContactName string `json:"contact_name,omitempty"`
	Phone       string `json:"phone,omitempty"`

	// SendStatus is free text from the upstream backend (SENT, DELIVERED,
	// READ, FAILED, REPLIED, ...). Matching is by uppercase substring, not a
	// closed enum.
	SendStatus string `json:"send_status,omitempty"`

	SentAt        *time.Time `json:"sent_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	ClickedAt     *time.Time `json:"clicked_at,omitempty"`
	RepliedAt     *time.Time `json:"replied_at,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`

	IsClicked bool   `json:"is_clicked,omitempty"`
	ClickType string `json:"click_type,omitempty"`

	// ErrorMessage being non-empty implies failure regardless of SendStatus.
	ErrorMessage string `json:"error_message,omitempty"`
}

// LastActivityAt resolves the most recent known activity timestamp for the
// event: last-updated first, then read, delivered, clicked, sent, created.
// The reply timestamp only drives bucket classification, never recency.
// Returns nil when the row carries no timestamp at all.
func (e *MessageEvent) LastActivityAt() *time.Time {
	for _, t := range []*time.Time{
		e.LastUpdatedAt,
		e.ReadAt,
		e.DeliveredAt,
		e.ClickedAt,
		e.SentAt,
		e.CreatedAt,
	} {
		if t != nil {
			return t
		}
	}
	return nil
}

// DedupeKey returns the identity used when collapsing duplicate rows per
// contact. Falls back to the phone number when the contact key is absent.
func (e *MessageEvent) DedupeKey() string {
	if e.ContactKey != "" {
		return e.ContactKey
	}
	return e.Phone
}
