package businessflow

import (
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
)

// DedupeEvents collapses multiple rows per contact into the most recent one.
// Identity is the contact key, falling back to the phone number; rows with
// neither are dropped. A candidate replaces the stored row when its resolved
// last-activity timestamp is greater than or equal to the stored one, so
// ties prefer the later-encountered row. Rows without any timestamp resolve
// to epoch zero and never displace a timestamped row.
//
// Output preserves first-seen key order, which makes the operation
// idempotent: deduping an already-deduped list returns it unchanged.
func DedupeEvents(events []*models.MessageEvent) []*models.MessageEvent {
	type slot struct {
		index int
		ev    *models.MessageEvent
		at    int64
	}

	best := make(map[string]*slot, len(events))
	order := make([]string, 0, len(events))

	for _, ev := range events {
		if ev == nil {
			continue
		}
		key := ev.DedupeKey()
		if key == "" {
			continue
		}

		at := lastActivityUnixMilli(ev)
		if stored, ok := best[key]; ok {
			if at >= stored.at {
				stored.ev = ev
				stored.at = at
			}
			continue
		}
		best[key] = &slot{index: len(order), ev: ev, at: at}
		order = append(order, key)
	}

	out := make([]*models.MessageEvent, 0, len(order))
	for _, key := range order {
		out = append(out, best[key].ev)
	}
	return out
}

func lastActivityUnixMilli(ev *models.MessageEvent) int64 {
	if t := ev.LastActivityAt(); t != nil {
		return t.UnixMilli()
	}
	return 0
}
