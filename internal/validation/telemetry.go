package validation

import (
	"encoding/json"

	"github.com/iha-referee/backend/internal/models"
)

// Attitude bounds in degrees, inclusive.
const (
	MinPitch = -90.0
	MaxPitch = 90.0
	MinYaw   = 0.0
	MaxYaw   = 360.0
	MinRoll  = -90.0
	MaxRoll  = 90.0
)

type clockPayload struct {
	Hour        *int `json:"saat"`
	Minute      *int `json:"dakika"`
	Second      *int `json:"saniye"`
	Millisecond *int `json:"milisaniye"`
}

type telemetryPayload struct {
	TeamID     *int          `json:"takim_numarasi"`
	Latitude   *float64      `json:"iha_enlem"`
	Longitude  *float64      `json:"iha_boylam"`
	Altitude   *float64      `json:"iha_irtifa"`
	Pitch      *float64      `json:"iha_dikilme"`
	Yaw        *float64      `json:"iha_yonelme"`
	Roll       *float64      `json:"iha_yatis"`
	Speed      *float64      `json:"iha_hiz"`
	Battery    *float64      `json:"iha_batarya"`
	Autonomous *int          `json:"iha_otonom"`
	Locked     *int          `json:"iha_kilitlenme"`
	CenterX    *int          `json:"hedef_merkez_X"`
	CenterY    *int          `json:"hedef_merkez_Y"`
	Width      *int          `json:"hedef_genislik"`
	Height     *int          `json:"hedef_yukseklik"`
	GPSTime    *clockPayload `json:"gps_saati"`
}

// fieldSet collects missing or invalid field names in declaration order.
type fieldSet []string

func (f *fieldSet) number(name string, v *float64) float64 {
	if v == nil {
		*f = append(*f, name)
		return 0
	}
	return *v
}

func (f *fieldSet) integer(name string, v *int) int {
	if v == nil {
		*f = append(*f, name)
		return 0
	}
	return *v
}

func (f *fieldSet) flag(name string, v *int) bool {
	if v == nil || (*v != 0 && *v != 1) {
		*f = append(*f, name)
		return false
	}
	return *v == 1
}

func (f *fieldSet) clock(name string, c *clockPayload) models.ClockTime {
	if c == nil {
		*f = append(*f, name)
		return models.ClockTime{}
	}
	return models.ClockTime{
		Hour:        f.integer(name+".saat", c.Hour),
		Minute:      f.integer(name+".dakika", c.Minute),
		Second:      f.integer(name+".saniye", c.Second),
		Millisecond: f.integer(name+".milisaniye", c.Millisecond),
	}
}

// DecodeTelemetry parses a telemetry submission. The target box is optional
// but must be complete when present. ServerTimeMs is left for the caller.
func DecodeTelemetry(data []byte) (*models.TelemetryRecord, error) {
	var p telemetryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, malformed(err)
	}

	var missing fieldSet
	rec := &models.TelemetryRecord{
		TeamID:     missing.integer("takim_numarasi", p.TeamID),
		Latitude:   missing.number("iha_enlem", p.Latitude),
		Longitude:  missing.number("iha_boylam", p.Longitude),
		Altitude:   missing.number("iha_irtifa", p.Altitude),
		Pitch:      missing.number("iha_dikilme", p.Pitch),
		Yaw:        missing.number("iha_yonelme", p.Yaw),
		Roll:       missing.number("iha_yatis", p.Roll),
		Speed:      missing.number("iha_hiz", p.Speed),
		Battery:    missing.number("iha_batarya", p.Battery),
		Autonomous: missing.flag("iha_otonom", p.Autonomous),
		Locked:     missing.flag("iha_kilitlenme", p.Locked),
		ClientTime: missing.clock("gps_saati", p.GPSTime),
	}

	box := []*int{p.CenterX, p.CenterY, p.Width, p.Height}
	present := 0
	for _, v := range box {
		if v != nil {
			present++
		}
	}
	switch present {
	case 0:
	case len(box):
		rec.TargetBox = &models.TargetBox{
			CenterX: *p.CenterX,
			CenterY: *p.CenterY,
			Width:   *p.Width,
			Height:  *p.Height,
		}
	default:
		missing.integer("hedef_merkez_X", p.CenterX)
		missing.integer("hedef_merkez_Y", p.CenterY)
		missing.integer("hedef_genislik", p.Width)
		missing.integer("hedef_yukseklik", p.Height)
	}

	if len(missing) > 0 {
		return nil, malformed(nil, missing...)
	}
	return rec, nil
}

// CheckRanges verifies the attitude angles. Any violation rejects the whole
// record.
func CheckRanges(rec *models.TelemetryRecord) error {
	var bad []string
	if rec.Pitch < MinPitch || rec.Pitch > MaxPitch {
		bad = append(bad, "iha_dikilme")
	}
	if rec.Yaw < MinYaw || rec.Yaw > MaxYaw {
		bad = append(bad, "iha_yonelme")
	}
	if rec.Roll < MinRoll || rec.Roll > MaxRoll {
		bad = append(bad, "iha_yatis")
	}
	if len(bad) > 0 {
		return &Error{Kind: OutOfRange, Fields: bad}
	}
	return nil
}
