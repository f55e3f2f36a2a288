package model

import "time"

// TimestampLayout is the textual format of every timestamp kept in the store,
// e.g. "2025-09-20 14:03:11.204518 +0000".
const TimestampLayout = "2006-01-02 15:04:05.000000 -0700"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(raw string) (time.Time, error) {
	return time.Parse(TimestampLayout, raw)
}
