package models

import (
	"database/sql/driver"
	"fmt"
)

// AudienceBucket names an audience subset derived from delivery-event status.
type AudienceBucket string

const (
	BucketAllRecipients       AudienceBucket = "ALL_RECIPIENTS"
	BucketDeliveredNotRead    AudienceBucket = "DELIVERED_NOT_READ"
	BucketDeliveredNotReplied AudienceBucket = "DELIVERED_NOT_REPLIED"
	BucketReadNotReplied      AudienceBucket = "READ_NOT_REPLIED"
	BucketClickedNotReplied   AudienceBucket = "CLICKED_NOT_REPLIED"
	BucketFailed              AudienceBucket = "FAILED"
	BucketReplied             AudienceBucket = "REPLIED"
)

// String returns the string representation of the bucket
func (b AudienceBucket) String() string {
	return string(b)
}

// Valid checks if the bucket is one of the known keys. Classification itself
// fails open on unknown keys; validity only matters where a bucket is
// persisted or submitted upstream.
func (b AudienceBucket) Valid() bool {
	switch b {
	case BucketAllRecipients, BucketDeliveredNotRead, BucketDeliveredNotReplied,
		BucketReadNotReplied, BucketClickedNotReplied, BucketFailed, BucketReplied:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for AudienceBucket
func (b *AudienceBucket) Scan(value any) error {
	if value == nil {
		*b = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*b = AudienceBucket(v)
	case []byte:
		*b = AudienceBucket(string(v))
	default:
		return fmt.Errorf("cannot scan %T into AudienceBucket", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for AudienceBucket
func (b AudienceBucket) Value() (driver.Value, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid AudienceBucket: %s", b)
	}
	return string(b), nil
}
