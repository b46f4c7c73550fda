package businessflow

import (
	"strings"
	"time"

	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
)

// Classify decides whether a delivery event belongs to the queried audience
// bucket. The predicate is pure and total: it never panics, and an unknown
// bucket key classifies everything in rather than filtering everything out,
// so a future bucket key degrades to "show all" instead of an empty report.
//
// windowDays only constrains REPLIED membership. A non-positive window
// disables the check, and an event whose send/reply timestamps cannot be
// resolved counts as in-window.
func Classify(ev *models.MessageEvent, bucket models.AudienceBucket, windowDays int) bool {
	if ev == nil {
		return false
	}

	switch bucket {
	case models.BucketFailed:
		return isFailed(ev)
	case models.BucketDeliveredNotRead:
		return ev.DeliveredAt != nil && ev.ReadAt == nil
	case models.BucketDeliveredNotReplied:
		return ev.DeliveredAt != nil && !hasReplied(ev)
	case models.BucketReadNotReplied:
		return ev.ReadAt != nil && !statusContains(ev, "REPLIED")
	case models.BucketClickedNotReplied:
		return hasClicked(ev) && !statusContains(ev, "REPLIED")
	case models.BucketReplied:
		return hasReplied(ev) && withinReplyWindow(ev, windowDays)
	default:
		// ALL_RECIPIENTS and any unrecognized key.
		return true
	}
}

func statusContains(ev *models.MessageEvent, needle string) bool {
	return strings.Contains(strings.ToUpper(ev.SendStatus), needle)
}

// isFailed treats a non-empty error message as failure regardless of status;
// the upstream sometimes reports FAILED only through the error field.
func isFailed(ev *models.MessageEvent) bool {
	return statusContains(ev, "FAILED") || strings.TrimSpace(ev.ErrorMessage) != ""
}

func hasReplied(ev *models.MessageEvent) bool {
	return statusContains(ev, "REPLIED") || ev.RepliedAt != nil
}

func hasClicked(ev *models.MessageEvent) bool {
	return ev.IsClicked || ev.ClickedAt != nil || strings.TrimSpace(ev.ClickType) != ""
}

// withinReplyWindow checks reply-sent elapsed time against the window. Fails
// open: a disabled window, a missing sent timestamp, or an unresolvable reply
// timestamp all count as in-window.
func withinReplyWindow(ev *models.MessageEvent, windowDays int) bool {
	if windowDays <= 0 {
		return true
	}

	replyAt := ev.RepliedAt
	if replyAt == nil {
		replyAt = ev.LastUpdatedAt
	}
	if replyAt == nil || ev.SentAt == nil {
		return true
	}

	return replyAt.Sub(*ev.SentAt) <= time.Duration(windowDays)*24*time.Hour
}

// FilterByBucket returns the events belonging to the bucket, preserving
// input order.
func FilterByBucket(events []*models.MessageEvent, bucket models.AudienceBucket, windowDays int) []*models.MessageEvent {
	out := make([]*models.MessageEvent, 0, len(events))
	for _, ev := range events {
		if Classify(ev, bucket, windowDays) {
			out = append(out, ev)
		}
	}
	return out
}
