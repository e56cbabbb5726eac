package telemetry

const (
	DefaultDetectStride = 10

	defaultHarshBrake      = 0.8
	defaultHarshSpeedDrop  = 20
	defaultOverlapBrake    = 0.2
	defaultOverlapThrottle = 0.5
	defaultUpshiftSpeed    = 200
	defaultUpshiftGear     = 5
)

type DetectOptions struct {
	// Stride checks one row in Stride candidates to bound output volume
	// and skip near-duplicate adjacent detections.
	Stride int

	HarshBrake      float64
	HarshSpeedDrop  float64
	OverlapBrake    float64
	OverlapThrottle float64
	UpshiftSpeed    float64
	UpshiftGear     float64
}

func (o DetectOptions) withDefaults() DetectOptions {
	if o.Stride <= 0 {
		o.Stride = DefaultDetectStride
	}
	if o.HarshBrake == 0 {
		o.HarshBrake = defaultHarshBrake
	}
	if o.HarshSpeedDrop == 0 {
		o.HarshSpeedDrop = defaultHarshSpeedDrop
	}
	if o.OverlapBrake == 0 {
		o.OverlapBrake = defaultOverlapBrake
	}
	if o.OverlapThrottle == 0 {
		o.OverlapThrottle = defaultOverlapThrottle
	}
	if o.UpshiftSpeed == 0 {
		o.UpshiftSpeed = defaultUpshiftSpeed
	}
	if o.UpshiftGear == 0 {
		o.UpshiftGear = defaultUpshiftGear
	}
	return o
}

// Detect scans the full row sequence for driving-mistake patterns. Rows at
// both endpoints are skipped and only every Stride-th index is evaluated.
// The three checks are independent; a check whose columns are unresolved or
// whose cells are absent is skipped while the others still run. Detect
// never fails: empty input and internal panics both yield an empty list.
func Detect(rows []Row, cols Columns, opts DetectOptions) (problems []Problem) {
	defer func() {
		if recover() != nil {
			problems = nil
		}
	}()

	if len(rows) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	xLo, xHi, xOK := columnRange(rows, cols.PosX)
	zLo, zHi, zOK := columnRange(rows, cols.PosZ)

	for i := 1; i < len(rows)-1; i++ {
		if i%opts.Stride != 0 {
			continue
		}
		prev, curr := rows[i-1], rows[i]
		pos := [2]float64{
			normalizeAxis(curr, cols.PosX, xLo, xHi, xOK),
			normalizeAxis(curr, cols.PosZ, zLo, zHi, zOK),
		}

		brake, hasBrake := cell(curr, cols.Brake)
		speed, hasSpeed := cell(curr, cols.Speed)
		prevSpeed, hasPrevSpeed := cell(prev, cols.Speed)
		throttle, hasThrottle := cell(curr, cols.Throttle)
		gear, hasGear := cell(curr, cols.Gear)

		if hasBrake && hasSpeed && hasPrevSpeed &&
			brake > opts.HarshBrake && prevSpeed-speed > opts.HarshSpeedDrop {
			problems = append(problems, Problem{
				Position:    pos,
				Description: "Harsh braking detected",
				Severity:    SeverityHigh,
			})
		}

		if hasBrake && hasThrottle &&
			brake > opts.OverlapBrake && throttle > opts.OverlapThrottle {
			problems = append(problems, Problem{
				Position:    pos,
				Description: "Overlapping throttle and brake",
				Severity:    SeverityMedium,
			})
		}

		if hasSpeed && hasGear &&
			speed > opts.UpshiftSpeed && gear < opts.UpshiftGear {
			problems = append(problems, Problem{
				Position:    pos,
				Description: "Late upshift detected",
				Severity:    SeverityLow,
			})
		}
	}
	return problems
}

func cell(row Row, col string) (float64, bool) {
	if col == "" {
		return 0, false
	}
	v, ok := row[col]
	return v, ok
}

// columnRange finds the min and max of a column across every row; ok is
// false when the column is unresolved or no row carries a value.
func columnRange(rows []Row, col string) (lo, hi float64, ok bool) {
	if col == "" {
		return 0, 0, false
	}
	for _, row := range rows {
		v, present := row[col]
		if !present {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// normalizeAxis maps a coordinate into [0,100]. A collapsed range, an
// unresolved column, or a missing cell all land on the 50 midpoint so map
// positions stay inside the canvas.
func normalizeAxis(row Row, col string, lo, hi float64, ok bool) float64 {
	v, present := cell(row, col)
	if !ok || !present || hi == lo {
		return 50
	}
	return (v - lo) / (hi - lo) * 100
}
