package plate

import (
	"strings"
)

// Normalize produces the comparison key for a plate string. All equality
// and containment checks go through this form, so "30A-123.45",
// "30A12345" and "30a 123 45" collide.
func Normalize(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ToUpper(normalized)
	return normalized
}
