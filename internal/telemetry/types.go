package telemetry

// Row is one telemetry sample keyed by source column name. A missing key
// means the cell was empty or not numeric; column names vary by game and
// export format.
type Row map[string]float64

// Point is a 2D position sample in source units.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Problem is a detected driving mistake. Position is normalized into
// [0,100] on both axes, never source units.
type Problem struct {
	Position    [2]float64 `json:"position"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	TimeLost    float64    `json:"time_lost,omitempty"`
}

// Extraction is the result of parsing one telemetry payload. DataPoints
// holds every parsed row for the detector; TrackPoints is the downsampled
// and smoothed driven line. Valid is false only on a parse failure, which
// terminates the whole analysis.
type Extraction struct {
	Valid       bool
	Reason      string
	TrackPoints []Point
	DataPoints  []Row
	Columns     Columns
}
