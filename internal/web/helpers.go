package web

import (
	"strconv"
	"time"
)

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("2006-01-02 15:04:05")
}

func itoa(value int) string {
	return strconv.Itoa(value)
}
