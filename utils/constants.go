package utils

// Audience reporting constants
const (
	// DefaultAudiencePageSize is the page size applied when the caller omits one.
	DefaultAudiencePageSize = 50

	// MaxAudiencePageSize caps a single audience page.
	MaxAudiencePageSize = 500
)

// Export constants
const (
	// ExportMaxRows is the hard cap on rows in a single audience export.
	ExportMaxRows = 5000

	// ExportFetchPageSize is the page size used while collecting rows for export.
	ExportFetchPageSize = 500
)

// Upstream error surfacing constants
const (
	// UpstreamErrorMessageLimit truncates upstream error messages for display.
	UpstreamErrorMessageLimit = 220
)
