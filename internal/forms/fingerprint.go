package forms

import "strings"

// DetectBrowser maps a user-agent string to the coarse browser label the
// login endpoint expects.
func DetectBrowser(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Firefox"):
		return "firefox"
	case strings.Contains(userAgent, "Chrome"):
		return "chrome"
	case strings.Contains(userAgent, "Safari"):
		return "safari"
	case strings.Contains(userAgent, "Edge"):
		return "edge"
	case strings.Contains(userAgent, "MSIE"), strings.Contains(userAgent, "Trident"):
		return "ie"
	}
	return "unknown"
}

// DetectOS maps a user-agent string to a coarse operating system label.
func DetectOS(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Win"):
		return "windows"
	case strings.Contains(userAgent, "Mac"):
		return "macos"
	case strings.Contains(userAgent, "Linux"):
		return "linux"
	case strings.Contains(userAgent, "Android"):
		return "android"
	case strings.Contains(userAgent, "iOS"):
		return "ios"
	}
	return "unknown"
}
