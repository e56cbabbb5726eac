package telemetry

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"

	DefaultSampleTarget = 200
	DefaultSmoothWindow = 5
)

type Options struct {
	SampleTarget int
	SmoothWindow int
}

func (o Options) withDefaults() Options {
	if o.SampleTarget <= 0 {
		o.SampleTarget = DefaultSampleTarget
	}
	if o.SmoothWindow <= 0 {
		o.SmoothWindow = DefaultSmoothWindow
	}
	return o
}

// DetectFormat picks json when a brace appears in the first 20 characters,
// csv otherwise. Cheap sniff, not validation.
func DetectFormat(raw string) string {
	head := raw
	if len(head) > 20 {
		head = head[:20]
	}
	if strings.Contains(head, "{") {
		return FormatJSON
	}
	return FormatCSV
}

// Extract parses a telemetry payload into rows and a driven track line.
// The track line is downsampled (CSV path) and smoothed; DataPoints keeps
// every row for problem detection. A parse failure yields Valid=false and
// is terminal for the analysis.
func Extract(raw, format string, opts Options) Extraction {
	opts = opts.withDefaults()

	var (
		rows   []Row
		points []Point
		cols   Columns
		err    error
	)
	if format == FormatJSON {
		rows, points, cols, err = extractJSON(raw)
	} else {
		rows, points, cols, err = extractCSV(raw, opts.SampleTarget)
	}
	if err != nil {
		return Extraction{Reason: err.Error()}
	}

	if len(points) > 0 {
		points = Smooth(points, opts.SmoothWindow)
	}
	return Extraction{
		Valid:       true,
		TrackPoints: points,
		DataPoints:  rows,
		Columns:     cols,
	}
}

func extractCSV(raw string, target int) ([]Row, []Point, Columns, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, Columns{}, err
	}
	if len(records) == 0 {
		return nil, nil, Columns{}, nil
	}

	headers := records[0]
	cols := ResolveColumns(headers)

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := Row{}
		for j, cell := range rec {
			if j >= len(headers) {
				break
			}
			if v, convErr := strconv.ParseFloat(strings.TrimSpace(cell), 64); convErr == nil {
				row[headers[j]] = v
			}
		}
		rows = append(rows, row)
	}

	if cols.PosX == "" || cols.PosZ == "" {
		return rows, nil, cols, nil
	}

	stride := len(rows) / target
	if stride < 1 {
		stride = 1
	}
	var points []Point
	for i := 0; i < len(rows); i += stride {
		x, okX := rows[i][cols.PosX]
		z, okZ := rows[i][cols.PosZ]
		if okX && okZ {
			points = append(points, Point{X: x, Z: z})
		}
	}
	return rows, points, cols, nil
}

func extractJSON(raw string) ([]Row, []Point, Columns, error) {
	var top any
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return nil, nil, Columns{}, err
	}

	var entries []any
	switch v := top.(type) {
	case []any:
		entries = v
	case map[string]any:
		tel, ok := v["telemetry"].([]any)
		if !ok {
			return nil, nil, Columns{}, errors.New("json payload has no recognizable telemetry points")
		}
		entries = tel
	default:
		return nil, nil, Columns{}, errors.New("json payload has no recognizable telemetry points")
	}

	rows := make([]Row, 0, len(entries))
	var points []Point
	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		row := flattenObject(obj)
		rows = append(rows, row)
		x, okX := row["x"]
		z, okZ := row["z"]
		if okX && okZ {
			points = append(points, Point{X: x, Z: z})
		}
	}

	var cols Columns
	if len(rows) > 0 {
		cols = resolveFromRow(rows[0])
	}
	return rows, points, cols, nil
}

// flattenObject keeps numeric fields and lifts a nested position object
// into x/z keys so both JSON shapes look alike downstream.
func flattenObject(obj map[string]any) Row {
	row := Row{}
	for k, v := range obj {
		switch t := v.(type) {
		case float64:
			row[k] = t
		case map[string]any:
			if k != "position" {
				continue
			}
			if x, ok := t["x"].(float64); ok {
				row["x"] = x
			}
			if z, ok := t["z"].(float64); ok {
				row["z"] = z
			}
		}
	}
	return row
}
