package models

// LockEvent records that a team achieved lock on a target.
type LockEvent struct {
	ID           string
	TeamID       int
	EndTime      ClockTime
	Autonomous   bool
	ReceivedAtMs int64
}

// DiveEvent records a terminal dive toward the visual marker.
type DiveEvent struct {
	ID           string
	TeamID       int
	StartTime    ClockTime
	EndTime      ClockTime
	MarkerText   string
	ReceivedAtMs int64
}
