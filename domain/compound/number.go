package compound

import "strconv"

// FormatNumber renders a float with the shortest representation that
// parses back to the same value.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
