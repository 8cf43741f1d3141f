package config

import (
	"os"
	"strings"
)

// ReportEmailEnabled gates outbound report email delivery.
// Disable in environments without a transactional email key.
//
// Set via env:
// - REPORT_EMAIL_ENABLED=false
func ReportEmailEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REPORT_EMAIL_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// AllowReanalysis controls whether a room whose analysis already completed can
// be analyzed again (merging new results into the canonical inventory).
//
// Set via env:
// - ALLOW_REANALYSIS=false
func AllowReanalysis() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_REANALYSIS")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
