// Package models contains domain types for the competition referee server.
package models

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock reading as reported by a team (GPS time, event
// start/end times).
type ClockTime struct {
	Hour        int `json:"saat"`
	Minute      int `json:"dakika"`
	Second      int `json:"saniye"`
	Millisecond int `json:"milisaniye"`
}

// String renders the time as "h:m:s:ms" without normalising components.
func (c ClockTime) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", c.Hour, c.Minute, c.Second, c.Millisecond)
}

// ServerTime is the authority's clock as published to teams.
type ServerTime struct {
	Day         int `json:"gun"`
	Hour        int `json:"saat"`
	Minute      int `json:"dakika"`
	Second      int `json:"saniye"`
	Millisecond int `json:"milisaniye"`
}

// NewServerTime converts t into its published form.
func NewServerTime(t time.Time) ServerTime {
	return ServerTime{
		Day:         t.Day(),
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Millisecond: t.Nanosecond() / int(time.Millisecond),
	}
}
