package utils

import (
	"fmt"

	ua "github.com/mileusna/useragent"
)

// DescribeDevice renders "Browser on OS (Device)" for audit log lines.
func DescribeDevice(userAgent string) string {
	browser, system, device := "Unknown Browser", "Unknown OS", "Desktop"
	if userAgent == "" {
		return fmt.Sprintf("%s on %s (%s)", browser, system, device)
	}

	parsed := ua.Parse(userAgent)
	if parsed.Name != "" {
		browser = parsed.Name
	}
	if parsed.OS != "" {
		system = parsed.OS
	}
	switch {
	case parsed.Mobile:
		device = "Mobile"
	case parsed.Tablet:
		device = "Tablet"
	case parsed.Bot:
		device = "Bot"
	}
	return fmt.Sprintf("%s on %s (%s)", browser, system, device)
}
