package yc01

import (
	"fmt"
	"time"
)

// Salinity is derived from conductivity by fixed factor.
const SaltPerEC = 0.55

// Reading is one complete checksum-valid probe sample.
// Absent reading is nil *Reading, never zero values.
type Reading struct {
	Type       byte      `json:"type"`
	SensorType string    `json:"sensor_type,omitempty"`
	Time       time.Time `json:"time"`
	RSSI       int       `json:"rssi"`

	PH          float64 `json:"ph"`
	EC          float64 `json:"ec"`          // uS/cm
	Salt        float64 `json:"salt"`        // EC * SaltPerEC
	TDS         float64 `json:"tds"`         // ppm
	ORP         float64 `json:"orp"`         // mV
	Chlorine    float64 `json:"chlorine"`    // mg/L
	Temperature float64 `json:"temperature"` // Celsius
	Battery     float64 `json:"battery"`     // mV
}

func (r *Reading) String() string {
	return fmt.Sprintf("type=%d pH=%.2f EC=%.0fuS/cm salt=%.2f TDS=%.0fppm ORP=%.0fmV Cl=%.1fmg/L temp=%.1fC battery=%.0fmV rssi=%d",
		r.Type, r.PH, r.EC, r.Salt, r.TDS, r.ORP, r.Chlorine, r.Temperature, r.Battery, r.RSSI)
}

// Fields is flat name->value map for time series sinks and history.
func (r *Reading) Fields() map[string]float64 {
	return map[string]float64{
		"ph":          r.PH,
		"ec":          r.EC,
		"salt":        r.Salt,
		"tds":         r.TDS,
		"orp":         r.ORP,
		"chlorine":    r.Chlorine,
		"temperature": r.Temperature,
		"battery":     r.Battery,
	}
}
