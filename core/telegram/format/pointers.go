package format

import "strconv"

// OptionalInt renders *int, or dash when absent.
func OptionalInt(i *int) string {
	if i == nil {
		return "-"
	}
	return strconv.Itoa(*i)
}
