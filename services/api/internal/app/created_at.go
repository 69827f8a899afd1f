package app

import (
	"strconv"
	"time"
)

// articleZone is the fixed UTC+7 offset article timestamps are rendered in.
var articleZone = time.FixedZone("UTC+7", 7*60*60)

// FormatCreatedAt renders t as e.g. "Monday, January 1st 2024, 12:00:00 +0700".
func FormatCreatedAt(t time.Time) string {
	t = t.In(articleZone)
	return t.Format("Monday, January ") + ordinal(t.Day()) + t.Format(" 2006, 15:04:05 -0700")
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
