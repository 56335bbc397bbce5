package util

import "fmt"

// BytesToSize renders a byte count with a binary unit suffix.
func BytesToSize(sz int64) string {
	const unit = 1024
	if sz < unit {
		return fmt.Sprintf("%d B", sz)
	}
	div, exp := int64(unit), 0
	for n := sz / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(sz)/float64(div), "KMGTPE"[exp])
}
