package analysis

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/vxvxzs/RaceSpace/internal/db"
	"github.com/vxvxzs/RaceSpace/internal/stream"
	"github.com/vxvxzs/RaceSpace/internal/telemetry"

	"github.com/google/uuid"
)

// InvalidInputError marks an unparsable upload. It terminates the request
// with a client-facing reason instead of a server error.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

type Options struct {
	SampleTarget int
	SmoothWindow int
	DetectStride int
}

type Service struct {
	db       db.Querier
	narrator Narrator
	hub      *stream.Hub
	opts     Options
}

func NewService(q db.Querier, narrator Narrator, hub *stream.Hub, opts Options) *Service {
	return &Service{db: q, narrator: narrator, hub: hub, opts: opts}
}

// Analyze runs one upload through the pipeline: extract, detect, assemble,
// persist. Extraction failure is terminal; detection and the AI call only
// degrade the result. No stage retries.
func (s *Service) Analyze(ctx context.Context, userID, fileName string, data []byte, format string) (Analysis, error) {
	raw := string(data)
	if format == "" {
		format = telemetry.DetectFormat(raw)
	}

	ext := telemetry.Extract(raw, format, telemetry.Options{
		SampleTarget: s.opts.SampleTarget,
		SmoothWindow: s.opts.SmoothWindow,
	})
	if !ext.Valid {
		return Analysis{}, &InvalidInputError{Reason: ext.Reason}
	}

	problems := telemetry.Detect(ext.DataPoints, ext.Columns, telemetry.DetectOptions{
		Stride: s.opts.DetectStride,
	})

	report := s.assemble(ctx, data, pointPairs(ext.TrackPoints), problems)

	analysis := Analysis{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileName:   fileName,
		Format:     format,
		LapSeconds: lapSeconds(report.LapTime),
		TopSpeed:   report.TopSpeed,
		Report:     report,
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return Analysis{}, err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO analyses (id, user_id, file_name, format, lap_seconds, top_speed, report)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, analysis.ID, analysis.UserID, analysis.FileName, analysis.Format, analysis.LapSeconds, analysis.TopSpeed, reportJSON)
	if err := row.Scan(&analysis.CreatedAt); err != nil {
		return Analysis{}, err
	}

	if s.hub != nil {
		event, _ := json.Marshal(map[string]any{
			"id":       analysis.ID,
			"user_id":  analysis.UserID,
			"lap_time": report.LapTime,
			"problems": len(report.Problems),
		})
		s.hub.Broadcast(userID, event)
	}

	return analysis, nil
}

// assemble merges the AI narrative with the locally computed data. The AI
// reply wins; local track points and problems fill only fields it omitted.
// Any narrator failure falls through to the synthetic narrative.
func (s *Service) assemble(ctx context.Context, data []byte, points [][2]float64, problems []telemetry.Problem) Report {
	if s.narrator != nil {
		report, err := s.narrator.Summarize(ctx, buildPrompt(data, len(problems)))
		if err == nil {
			if len(report.TrackPoints) == 0 {
				report.TrackPoints = points
			}
			if len(report.Problems) == 0 {
				report.Problems = problems
			}
			return report
		}
		log.Printf("ai narrator failed, using synthetic report: %v", err)
	}
	return SyntheticReport(data, points, problems)
}

func (s *Service) Get(ctx context.Context, id string) (Analysis, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, file_name, format, lap_seconds, top_speed, report, created_at
		FROM analyses WHERE id=$1
	`, id)
	return scanAnalysis(row)
}

func (s *Service) History(ctx context.Context, userID string) ([]Analysis, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, file_name, format, lap_seconds, top_speed, report, created_at
		FROM analyses WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var reportJSON []byte
	if err := row.Scan(&a.ID, &a.UserID, &a.FileName, &a.Format, &a.LapSeconds, &a.TopSpeed, &reportJSON, &a.CreatedAt); err != nil {
		return Analysis{}, err
	}
	if err := json.Unmarshal(reportJSON, &a.Report); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

func pointPairs(points []telemetry.Point) [][2]float64 {
	pairs := make([][2]float64, len(points))
	for i, p := range points {
		pairs[i] = [2]float64{p.X, p.Z}
	}
	return pairs
}

// lapSeconds parses "m:ss.mmm" for the history stats; a bare number is
// taken as seconds and anything else as zero.
func lapSeconds(lap string) float64 {
	parts := strings.SplitN(lap, ":", 2)
	if len(parts) != 2 {
		v, _ := strconv.ParseFloat(lap, 64)
		return v
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	sec, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0
	}
	return float64(m)*60 + sec
}
