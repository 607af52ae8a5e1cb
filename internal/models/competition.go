package models

// RosterEntry is a registered team. Keys follow the competition's teams file.
type RosterEntry struct {
	Login      string `yaml:"kadi" json:"kadi"`
	Credential string `yaml:"sifre" json:"-"`
	TeamID     int    `yaml:"takim_no" json:"takim_no"`
}

// HazardZone is a circular no-fly region announced by the referees.
type HazardZone struct {
	ID     int     `yaml:"id" json:"id"`
	Lat    float64 `yaml:"lat" json:"hssEnlem"`
	Lon    float64 `yaml:"lon" json:"hssBoylam"`
	Radius float64 `yaml:"radius" json:"hssYaricap"`
}

// TargetLocation is the position of the visual (QR) marker.
type TargetLocation struct {
	Lat float64 `yaml:"lat" json:"qrEnlem"`
	Lon float64 `yaml:"lon" json:"qrBoylam"`
}

// HazardResponse is the published hazard zone list.
type HazardResponse struct {
	ServerTime ServerTime   `json:"sunucusaati"`
	Zones      []HazardZone `json:"hss_koordinat_bilgileri"`
}

// Stats holds row counts of the persisted tables.
type Stats struct {
	Telemetry int64 `json:"telemetry"`
	Locks     int64 `json:"locks"`
	Dives     int64 `json:"dives"`
	Teams     int64 `json:"teams"`
}
