package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns runs (oldest first) into per-run deltas plus a
// moving average of the error count over window.
func BuildTrendReport(projectKey string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded for project %q", normalizeProject(projectKey))
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			RunID:      current.ID,
			Timestamp:  current.Timestamp,
			FileCount:  current.FileCount,
			ErrorCount: current.ErrorCount,
			WarnCount:  current.WarnCount,
			FixedCount: current.FixedCount,
		}
		if i > 0 {
			prev := runs[i-1]
			point.DeltaErrors = current.ErrorCount - prev.ErrorCount
			point.DeltaWarnings = current.WarnCount - prev.WarnCount
			point.DeltaByRule = ruleDeltas(prev.RuleCounts, current.RuleCounts)
			point.ConfigChanged = prev.Fingerprint != current.Fingerprint
		}
		point.AvgErrors = round2(movingAverage(runs, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		ProjectKey:    normalizeProject(projectKey),
		Since:         runs[0].Timestamp,
		Until:         runs[len(runs)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func ruleDeltas(prev, current map[string]int) map[string]int {
	out := make(map[string]int)
	for rule, n := range current {
		if d := n - prev[rule]; d != 0 {
			out[rule] = d
		}
	}
	for rule, n := range prev {
		if _, ok := current[rule]; !ok && n != 0 {
			out[rule] = -n
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func movingAverage(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(runs[index].ErrorCount)
	}
	cutoff := runs[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		total += runs[i].ErrorCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
