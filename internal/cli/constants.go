package cli

// Default values for CLI output.
const (
	// MaxDescriptionLength is the maximum length of a package description in tables.
	MaxDescriptionLength = 30
	// TableWidth is the width of the separator line under table headers.
	TableWidth = 60
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
)
