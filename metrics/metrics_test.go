package metrics

import (
	"errors"
	"testing"
	"time"

	"incident-dashboard/models"
)

func incident(priority models.Priority, status models.Status, incidentDate time.Time) models.IncidentRecord {
	return models.IncidentRecord{
		Priority:     priority,
		Status:       status,
		IncidentDate: incidentDate,
	}
}

func TestSummarize(t *testing.T) {
	aug := func(d int) time.Time {
		return time.Date(2026, time.August, d, 8, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		records  []models.IncidentRecord
		expected Summary
	}{
		{
			name:     "empty snapshot",
			records:  nil,
			expected: Summary{},
		},
		{
			name: "mixed snapshot",
			records: []models.IncidentRecord{
				incident(models.PriorityCritical, models.StatusReported, aug(1)),
				incident(models.PriorityLow, models.StatusResolved, aug(2)),
				incident(models.PriorityMedium, models.StatusInvestigating, aug(3)),
				incident(models.PriorityHigh, models.StatusClosed, aug(4)),
			},
			expected: Summary{TotalIncidents: 4, TotalCritical: 1, TotalResolved: 1},
		},
		{
			name: "critical and resolved counts in both",
			records: []models.IncidentRecord{
				incident(models.PriorityCritical, models.StatusResolved, aug(1)),
			},
			expected: Summary{TotalIncidents: 1, TotalCritical: 1, TotalResolved: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.records); got != tt.expected {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestBucketByDayZeroFill(t *testing.T) {
	now := time.Date(2026, time.August, 21, 15, 30, 0, 0, time.UTC)

	points, err := BucketByDayAt(nil, 7, now, time.UTC)
	if err != nil {
		t.Fatalf("BucketByDayAt() error = %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("BucketByDayAt() returned %d points, want 7", len(points))
	}

	expectedDates := []string{
		"2026-08-15", "2026-08-16", "2026-08-17", "2026-08-18",
		"2026-08-19", "2026-08-20", "2026-08-21",
	}
	for i, p := range points {
		if p.Date != expectedDates[i] {
			t.Errorf("point %d date = %q, want %q", i, p.Date, expectedDates[i])
		}
		if p.Incidents != 0 || p.Critical != 0 || p.Resolved != 0 {
			t.Errorf("point %d = %+v, want zero counts", i, p)
		}
	}
}

func TestBucketByDayCounts(t *testing.T) {
	now := time.Date(2026, time.August, 21, 15, 30, 0, 0, time.UTC)
	at := func(d, hour int) time.Time {
		return time.Date(2026, time.August, d, hour, 0, 0, 0, time.UTC)
	}

	records := []models.IncidentRecord{
		incident(models.PriorityCritical, models.StatusReported, at(21, 6)),
		incident(models.PriorityLow, models.StatusReported, at(21, 23)),
		incident(models.PriorityCritical, models.StatusResolved, at(15, 0)),
		incident(models.PriorityMedium, models.StatusResolved, at(19, 12)),
		// Outside the window on either side.
		incident(models.PriorityCritical, models.StatusReported, at(10, 9)),
		incident(models.PriorityHigh, models.StatusReported, at(25, 9)),
	}

	points, err := BucketByDayAt(records, 7, now, time.UTC)
	if err != nil {
		t.Fatalf("BucketByDayAt() error = %v", err)
	}

	expected := map[string]models.TrendPoint{
		"2026-08-15": {Date: "2026-08-15", Incidents: 1, Critical: 1, Resolved: 1},
		"2026-08-19": {Date: "2026-08-19", Incidents: 1, Resolved: 1},
		"2026-08-21": {Date: "2026-08-21", Incidents: 2, Critical: 1},
	}

	total := 0
	for _, p := range points {
		want, ok := expected[p.Date]
		if !ok {
			want = models.TrendPoint{Date: p.Date}
		}
		if p != want {
			t.Errorf("point %s = %+v, want %+v", p.Date, p, want)
		}
		total += p.Incidents
	}
	// The two out-of-window records must not be counted anywhere.
	if total != 4 {
		t.Errorf("window total = %d incidents, want 4", total)
	}
}

func TestBucketByDayChronological(t *testing.T) {
	now := time.Date(2026, time.August, 21, 0, 5, 0, 0, time.UTC)

	points, err := BucketByDayAt(nil, 30, now, time.UTC)
	if err != nil {
		t.Fatalf("BucketByDayAt() error = %v", err)
	}
	for i := 1; i < len(points); i++ {
		if points[i-1].Date >= points[i].Date {
			t.Errorf("points out of order: %q before %q", points[i-1].Date, points[i].Date)
		}
	}
	if points[len(points)-1].Date != "2026-08-21" {
		t.Errorf("last point date = %q, want %q", points[len(points)-1].Date, "2026-08-21")
	}
}

func TestBucketByDayWindowOfOne(t *testing.T) {
	now := time.Date(2026, time.August, 21, 12, 0, 0, 0, time.UTC)
	records := []models.IncidentRecord{
		incident(models.PriorityLow, models.StatusReported, now.Add(-2*time.Hour)),
		incident(models.PriorityLow, models.StatusReported, now.Add(-36*time.Hour)),
	}

	points, err := BucketByDayAt(records, 1, now, time.UTC)
	if err != nil {
		t.Fatalf("BucketByDayAt() error = %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("BucketByDayAt() returned %d points, want 1", len(points))
	}
	if points[0].Date != "2026-08-21" || points[0].Incidents != 1 {
		t.Errorf("point = %+v, want 1 incident on 2026-08-21", points[0])
	}
}

func TestBucketByDayHonorsLocation(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)
	// 22:00 UTC on the 20th is 01:00 on the 21st in East Africa.
	records := []models.IncidentRecord{
		incident(models.PriorityLow, models.StatusReported, time.Date(2026, time.August, 20, 22, 0, 0, 0, time.UTC)),
	}
	now := time.Date(2026, time.August, 21, 10, 0, 0, 0, eat)

	inEAT, err := BucketByDayAt(records, 2, now, eat)
	if err != nil {
		t.Fatalf("BucketByDayAt() error = %v", err)
	}
	if inEAT[1].Date != "2026-08-21" || inEAT[1].Incidents != 1 {
		t.Errorf("EAT bucket = %+v, want the incident on 2026-08-21", inEAT[1])
	}

	inUTC, err := BucketByDayAt(records, 2, now, time.UTC)
	if err != nil {
		t.Fatalf("BucketByDayAt() error = %v", err)
	}
	if inUTC[0].Date != "2026-08-20" || inUTC[0].Incidents != 1 {
		t.Errorf("UTC bucket = %+v, want the incident on 2026-08-20", inUTC[0])
	}
}

func TestBucketByDayInvalidWindow(t *testing.T) {
	now := time.Date(2026, time.August, 21, 12, 0, 0, 0, time.UTC)

	for _, windowDays := range []int{0, -3} {
		points, err := BucketByDayAt(nil, windowDays, now, time.UTC)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("BucketByDayAt(%d) error = %v, want ErrInvalidWindow", windowDays, err)
		}
		if points != nil {
			t.Errorf("BucketByDayAt(%d) points = %v, want nil on error", windowDays, points)
		}
	}
}

func TestScaleForDisplay(t *testing.T) {
	points := []models.TrendPoint{
		{Date: "2026-08-19", Incidents: 4, Critical: 1},
		{Date: "2026-08-20", Incidents: 2, Resolved: 2},
		{Date: "2026-08-21"},
	}

	scaled := ScaleForDisplay(points)
	if scaled.MaxValue != 4 {
		t.Errorf("MaxValue = %d, want 4", scaled.MaxValue)
	}

	expected := []ScaledPoint{
		{Date: "2026-08-19", Incidents: 1, Critical: 0.25},
		{Date: "2026-08-20", Incidents: 0.5, Resolved: 0.5},
		{Date: "2026-08-21"},
	}
	for i, sp := range scaled.Points {
		if sp != expected[i] {
			t.Errorf("point %d = %+v, want %+v", i, sp, expected[i])
		}
	}
}

func TestScaleForDisplayAllZero(t *testing.T) {
	points := []models.TrendPoint{
		{Date: "2026-08-20"},
		{Date: "2026-08-21"},
	}

	scaled := ScaleForDisplay(points)
	if scaled.MaxValue != 0 {
		t.Errorf("MaxValue = %d, want 0", scaled.MaxValue)
	}
	for i, sp := range scaled.Points {
		if sp.Incidents != 0 || sp.Critical != 0 || sp.Resolved != 0 {
			t.Errorf("point %d = %+v, want all-zero heights", i, sp)
		}
	}
}

func TestScaleForDisplayEmpty(t *testing.T) {
	scaled := ScaleForDisplay(nil)
	if scaled.MaxValue != 0 {
		t.Errorf("MaxValue = %d, want 0", scaled.MaxValue)
	}
	if len(scaled.Points) != 0 {
		t.Errorf("Points = %v, want empty", scaled.Points)
	}
}

func TestScaleForDisplayBounds(t *testing.T) {
	points := []models.TrendPoint{
		{Date: "2026-08-18", Incidents: 17, Critical: 3, Resolved: 9},
		{Date: "2026-08-19", Incidents: 1, Critical: 1, Resolved: 1},
		{Date: "2026-08-20", Incidents: 0, Critical: 0, Resolved: 0},
		{Date: "2026-08-21", Incidents: 5, Critical: 17, Resolved: 2},
	}

	scaled := ScaleForDisplay(points)
	for i, sp := range scaled.Points {
		for _, h := range []float64{sp.Incidents, sp.Critical, sp.Resolved} {
			if h < 0 || h > 1 {
				t.Errorf("point %d height %v outside [0, 1]", i, h)
			}
		}
	}
	// The largest value maps to exactly 1.
	if scaled.Points[3].Critical != 1 {
		t.Errorf("max height = %v, want 1", scaled.Points[3].Critical)
	}
}
