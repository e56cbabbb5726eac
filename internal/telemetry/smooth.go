package telemetry

// Smooth applies a moving average with half-width window to a position
// sequence. Near the edges the window is clamped to the sequence, not
// padded or wrapped. Sequences shorter than the window are returned
// unchanged. Output length equals input length.
func Smooth(points []Point, window int) []Point {
	if window <= 0 || len(points) < window {
		return points
	}

	n := len(points)
	out := make([]Point, n)
	for i := range points {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > n {
			hi = n
		}

		var sx, sz float64
		for j := lo; j < hi; j++ {
			sx += points[j].X
			sz += points[j].Z
		}
		span := float64(hi - lo)
		out[i] = Point{X: sx / span, Z: sz / span}
	}
	return out
}
