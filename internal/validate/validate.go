package validate

import "fmt"

// Size limits for user-supplied filter criteria.
const (
	MaxTitleSearchLength = 200
	MaxCategories        = 20
	MaxCategoryLength    = 50
	MaxYears             = 50
	MaxDurationBands     = 10
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func checkCount(n, max int, field string) string {
	if n > max {
		return fmt.Sprintf("%s must have %d entries or fewer", field, max)
	}
	return ""
}

func TitleSearch(s string) string { return checkLen(s, MaxTitleSearchLength, "title search") }
func Category(s string) string    { return checkLen(s, MaxCategoryLength, "category") }

func Categories(n int) string    { return checkCount(n, MaxCategories, "categories") }
func Years(n int) string         { return checkCount(n, MaxYears, "years") }
func DurationBands(n int) string { return checkCount(n, MaxDurationBands, "duration bands") }

// FieldLimits returns a map of field names to limits for the filter options
// endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"titleSearch":   MaxTitleSearchLength,
		"categories":    MaxCategories,
		"category":      MaxCategoryLength,
		"years":         MaxYears,
		"durationBands": MaxDurationBands,
	}
}
