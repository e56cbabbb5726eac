package analysis

import (
	"time"

	"github.com/vxvxzs/RaceSpace/internal/telemetry"
)

// Report is the externally visible analysis result rendered by the
// front-end as lap stats, a track map and recommendations.
type Report struct {
	LapTime         string              `json:"lap_time"`
	TopSpeed        float64             `json:"top_speed"`
	Sectors         []Sector            `json:"sectors"`
	Turns           []TurnStat          `json:"turns"`
	Recommendations []string            `json:"recommendations"`
	TrackPoints     [][2]float64        `json:"track_points"`
	Problems        []telemetry.Problem `json:"problems"`
}

type Sector struct {
	Number   int    `json:"number"`
	Time     string `json:"time"`
	Mistakes int    `json:"mistakes"`
}

type TurnStat struct {
	Turn       int     `json:"turn"`
	EntrySpeed float64 `json:"entry_speed"`
	ApexSpeed  float64 `json:"apex_speed"`
	Braking    string  `json:"braking"`
}

// Analysis is one stored run of the pipeline.
type Analysis struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	Format     string    `json:"format"`
	LapSeconds float64   `json:"lap_seconds"`
	TopSpeed   float64   `json:"top_speed"`
	Report     Report    `json:"report"`
	CreatedAt  time.Time `json:"created_at"`
}
