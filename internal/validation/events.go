package validation

import (
	"encoding/json"

	"github.com/iha-referee/backend/internal/models"
)

// LockReport is a decoded target-lock submission.
type LockReport struct {
	EndTime    models.ClockTime
	Autonomous bool
}

// DiveReport is a decoded terminal-dive submission.
type DiveReport struct {
	StartTime  models.ClockTime
	EndTime    models.ClockTime
	MarkerText string
}

type lockPayload struct {
	EndTime    *clockPayload `json:"kilitlenmeBitisZamani"`
	Autonomous *int          `json:"otonom_kilitlenme"`
}

type divePayload struct {
	StartTime  *clockPayload `json:"kamikazeBaslangicZamani"`
	EndTime    *clockPayload `json:"kamikazeBitisZamani"`
	MarkerText *string       `json:"qrMetni"`
}

// DecodeLock parses a lock event. Event payloads carry no team number.
func DecodeLock(data []byte) (*LockReport, error) {
	var p lockPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, malformed(err)
	}

	var missing fieldSet
	r := &LockReport{
		EndTime:    missing.clock("kilitlenmeBitisZamani", p.EndTime),
		Autonomous: missing.flag("otonom_kilitlenme", p.Autonomous),
	}
	if len(missing) > 0 {
		return nil, malformed(nil, missing...)
	}
	return r, nil
}

// DecodeDive parses a dive event.
func DecodeDive(data []byte) (*DiveReport, error) {
	var p divePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, malformed(err)
	}

	var missing fieldSet
	r := &DiveReport{
		StartTime: missing.clock("kamikazeBaslangicZamani", p.StartTime),
		EndTime:   missing.clock("kamikazeBitisZamani", p.EndTime),
	}
	if p.MarkerText == nil {
		missing = append(missing, "qrMetni")
	} else {
		r.MarkerText = *p.MarkerText
	}
	if len(missing) > 0 {
		return nil, malformed(nil, missing...)
	}
	return r, nil
}
