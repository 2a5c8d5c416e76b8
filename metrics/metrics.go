// Package metrics computes dashboard aggregates from in-memory incident
// snapshots: headline counters, daily trend buckets, and display scaling.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"incident-dashboard/models"
)

// ErrInvalidWindow is returned when a trend window is zero or negative.
// Callers should treat it as a bad request, not a transient failure.
var ErrInvalidWindow = errors.New("invalid trend window")

const dayFormat = "2006-01-02"

// Summary holds the headline dashboard counters. Critical and resolved
// are counts of incidents matching the predicate, not sums of any
// numeric field.
type Summary struct {
	TotalIncidents int `json:"total_incidents"`
	TotalCritical  int `json:"total_critical"`
	TotalResolved  int `json:"total_resolved"`
}

// Summarize counts the whole snapshot in a single pass. An incident that
// is both critical and resolved contributes to both counters.
func Summarize(records []models.IncidentRecord) Summary {
	summary := Summary{TotalIncidents: len(records)}
	for _, rec := range records {
		if rec.Priority == models.PriorityCritical {
			summary.TotalCritical++
		}
		if rec.Status == models.StatusResolved {
			summary.TotalResolved++
		}
	}
	return summary
}

// BucketByDay groups records by the calendar day of their incident date
// over the trailing windowDays days ending today (UTC). Every day in the
// window is present, zero-filled, in chronological order. Records whose
// incident date falls outside the window are ignored.
func BucketByDay(records []models.IncidentRecord, windowDays int) ([]models.TrendPoint, error) {
	return BucketByDayAt(records, windowDays, time.Now(), time.UTC)
}

// BucketByDayAt is BucketByDay with an explicit reference instant and
// zone. A nil location falls back to UTC.
func BucketByDayAt(records []models.IncidentRecord, windowDays int, now time.Time, loc *time.Location) ([]models.TrendPoint, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidWindow, windowDays)
	}
	if loc == nil {
		loc = time.UTC
	}

	end := now.In(loc)
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(windowDays - 1))

	points := make([]models.TrendPoint, windowDays)
	index := make(map[string]int, windowDays)
	for i := range points {
		date := start.AddDate(0, 0, i).Format(dayFormat)
		points[i] = models.TrendPoint{Date: date}
		index[date] = i
	}

	for _, rec := range records {
		day := rec.IncidentDate.In(loc).Format(dayFormat)
		i, ok := index[day]
		if !ok {
			continue
		}
		points[i].Incidents++
		if rec.Priority == models.PriorityCritical {
			points[i].Critical++
		}
		if rec.Status == models.StatusResolved {
			points[i].Resolved++
		}
	}

	return points, nil
}

// ScaledPoint carries one day's series values normalized to [0, 1] for
// direct use as chart heights.
type ScaledPoint struct {
	Date      string  `json:"date"`
	Incidents float64 `json:"incidents"`
	Critical  float64 `json:"critical"`
	Resolved  float64 `json:"resolved"`
}

// ScaledTrend is the display-ready form of a bucketed series.
type ScaledTrend struct {
	MaxValue int           `json:"max_value"`
	Points   []ScaledPoint `json:"points"`
}

// ScaleForDisplay normalizes every series value by the single maximum
// across all points and series. A maximum of zero yields all-zero
// heights rather than dividing by zero.
func ScaleForDisplay(points []models.TrendPoint) ScaledTrend {
	max := 0
	for _, p := range points {
		for _, v := range []int{p.Incidents, p.Critical, p.Resolved} {
			if v > max {
				max = v
			}
		}
	}

	scaled := ScaledTrend{MaxValue: max, Points: make([]ScaledPoint, len(points))}
	for i, p := range points {
		sp := ScaledPoint{Date: p.Date}
		if max > 0 {
			sp.Incidents = normalize(p.Incidents, max)
			sp.Critical = normalize(p.Critical, max)
			sp.Resolved = normalize(p.Resolved, max)
		}
		scaled.Points[i] = sp
	}
	return scaled
}

func normalize(v, max int) float64 {
	h := float64(v) / float64(max)
	if h < 0 {
		return 0
	}
	if h > 1 {
		return 1
	}
	return h
}
