package models

// TargetBox is the bounding box of a tracked target in the camera frame.
type TargetBox struct {
	CenterX int
	CenterY int
	Width   int
	Height  int
}

// TelemetryRecord is one accepted position report. Records are immutable once
// appended to a store.
type TelemetryRecord struct {
	Seq          int64 // store-assigned insertion order
	TeamID       int
	Latitude     float64
	Longitude    float64
	Altitude     float64
	Pitch        float64
	Yaw          float64
	Roll         float64
	Speed        float64
	Battery      float64
	Autonomous   bool
	Locked       bool
	TargetBox    *TargetBox
	ClientTime   ClockTime
	ServerTimeMs int64
}

// RivalPosition is a rival team's last known state as relayed to a team.
type RivalPosition struct {
	TeamID    int     `json:"takim_numarasi"`
	Latitude  float64 `json:"iha_enlem"`
	Longitude float64 `json:"iha_boylam"`
	Altitude  float64 `json:"iha_irtifa"`
	Pitch     float64 `json:"iha_dikilme"`
	Yaw       float64 `json:"iha_yonelme"`
	Roll      float64 `json:"iha_yatis"`
	Speed     float64 `json:"iha_hizi"`
	AgeMs     int64   `json:"zaman_farki"`
}

// TelemetryResponse is returned for every accepted telemetry submission.
type TelemetryResponse struct {
	ServerTime ServerTime      `json:"sunucusaati"`
	Rivals     []RivalPosition `json:"konumBilgileri"`
}
