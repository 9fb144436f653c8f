package models

import (
	"math"
	"time"
)

// FastingState is the device-local intermittent fasting timer. Times are
// epoch milliseconds; nil means unset.
type FastingState struct {
	IsFasting          bool    `json:"isFasting"`
	StartTime          *int64  `json:"startTime"`
	DurationHours      float64 `json:"durationHours"`
	EndTime            *int64  `json:"endTime"`
	CompletionNotified bool    `json:"completionNotified"`
}

// StartFast begins a fast of the given length at now.
func StartFast(now time.Time, hours float64) FastingState {
	start := now.UnixMilli()
	end := start + int64(hours*float64(time.Hour/time.Millisecond))
	return FastingState{
		IsFasting:     true,
		StartTime:     &start,
		DurationHours: hours,
		EndTime:       &end,
	}
}

// WithTimes overrides the start and/or end time. When both are set and start
// precedes end, DurationHours is recomputed and rounded to two decimals.
func (f FastingState) WithTimes(start, end *int64) FastingState {
	out := f
	if start != nil {
		v := *start
		out.StartTime = &v
	}
	if end != nil {
		v := *end
		out.EndTime = &v
	}
	if out.StartTime != nil && out.EndTime != nil && *out.StartTime < *out.EndTime {
		hours := float64(*out.EndTime-*out.StartTime) / float64(time.Hour/time.Millisecond)
		out.DurationHours = math.Round(hours*100) / 100
	}
	return out
}

// Finished reports whether an active fast has reached its end time.
func (f FastingState) Finished(now time.Time) bool {
	return f.IsFasting && f.EndTime != nil && now.UnixMilli() >= *f.EndTime
}
