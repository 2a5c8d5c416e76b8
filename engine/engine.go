// Package engine filters and sorts in-memory incident snapshots. It is
// pure: no I/O, no clock, no mutation of its inputs, so the same inputs
// always produce the same output.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"incident-dashboard/models"
)

// ErrInvalidSortField is returned when a sort spec names a field that is
// neither a sortable attribute nor a computed key. Callers should treat
// it as a bad request, not a transient failure.
var ErrInvalidSortField = errors.New("invalid sort field")

// SortDirection orders a sorted view. Any value other than
// SortAscending sorts descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortField names a sortable incident attribute or computed key.
type SortField string

const (
	SortFieldID              SortField = "id"
	SortFieldIncidentType    SortField = "incidentType"
	SortFieldCounty          SortField = "county"
	SortFieldSubCounty       SortField = "subCounty"
	SortFieldLocation        SortField = "location"
	SortFieldDescription     SortField = "description"
	SortFieldPriority        SortField = "priority"
	SortFieldStatus          SortField = "status"
	SortFieldIncidentDate    SortField = "incidentDate"
	SortFieldReportedDate    SortField = "reportedDate"
	SortFieldCreatedAt       SortField = "createdAt"
	SortFieldResponseTime    SortField = "responseTimeMs"
	SortFieldTotalCasualties SortField = "totalCasualties"
	SortFieldTotalLivestock  SortField = "totalLivestock"
)

// FilterSpec narrows a snapshot. Empty fields impose no constraint; set
// fields combine with AND. SearchTerm is a case-insensitive substring
// match across description, location, county, and id. Status, Priority,
// and County are exact matches.
type FilterSpec struct {
	SearchTerm string
	Status     string
	Priority   string
	County     string
}

// SortSpec orders the filtered result.
type SortSpec struct {
	Field     SortField
	Direction SortDirection
}

// stringKeys compare by lower-cased value so that ordering ignores case.
var stringKeys = map[SortField]func(r models.IncidentRecord) string{
	SortFieldID:           func(r models.IncidentRecord) string { return r.ID },
	SortFieldIncidentType: func(r models.IncidentRecord) string { return r.IncidentType },
	SortFieldCounty:       func(r models.IncidentRecord) string { return r.County },
	SortFieldSubCounty:    func(r models.IncidentRecord) string { return stringOrEmpty(r.SubCounty) },
	SortFieldLocation:     func(r models.IncidentRecord) string { return r.Location },
	SortFieldDescription:  func(r models.IncidentRecord) string { return r.Description },
	SortFieldPriority:     func(r models.IncidentRecord) string { return string(r.Priority) },
	SortFieldStatus:       func(r models.IncidentRecord) string { return string(r.Status) },
}

// numericKeys compare temporal fields by epoch milliseconds and computed
// keys by their derived totals. An absent response time counts as zero.
var numericKeys = map[SortField]func(r models.IncidentRecord) int64{
	SortFieldIncidentDate:    func(r models.IncidentRecord) int64 { return r.IncidentDate.UnixMilli() },
	SortFieldReportedDate:    func(r models.IncidentRecord) int64 { return r.ReportedDate.UnixMilli() },
	SortFieldCreatedAt:       func(r models.IncidentRecord) int64 { return r.CreatedAt.UnixMilli() },
	SortFieldResponseTime:    func(r models.IncidentRecord) int64 { return int64OrZero(r.ResponseTimeMs) },
	SortFieldTotalCasualties: func(r models.IncidentRecord) int64 { return int64(r.TotalCasualties()) },
	SortFieldTotalLivestock:  func(r models.IncidentRecord) int64 { return int64(r.TotalLivestock()) },
}

// Apply filters records, then orders the survivors with a stable sort.
// The input slice is never modified; the result is freshly allocated.
// An unknown sort field returns ErrInvalidSortField before any
// filtering happens.
func Apply(records []models.IncidentRecord, filter FilterSpec, sortSpec SortSpec) ([]models.IncidentRecord, error) {
	less, err := comparatorFor(sortSpec)
	if err != nil {
		return nil, err
	}

	result := make([]models.IncidentRecord, 0, len(records))
	for _, rec := range records {
		if matches(rec, filter) {
			result = append(result, rec)
		}
	}

	// Stable so that equal keys keep their snapshot order.
	sort.SliceStable(result, func(i, j int) bool {
		return less(result[i], result[j])
	})

	return result, nil
}

func comparatorFor(spec SortSpec) (func(a, b models.IncidentRecord) bool, error) {
	asc := spec.Direction == SortAscending

	if key, ok := stringKeys[spec.Field]; ok {
		return func(a, b models.IncidentRecord) bool {
			av := strings.ToLower(key(a))
			bv := strings.ToLower(key(b))
			if asc {
				return av < bv
			}
			return bv < av
		}, nil
	}

	if key, ok := numericKeys[spec.Field]; ok {
		return func(a, b models.IncidentRecord) bool {
			if asc {
				return key(a) < key(b)
			}
			return key(b) < key(a)
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, spec.Field)
}

func matches(rec models.IncidentRecord, filter FilterSpec) bool {
	if filter.Status != "" && string(rec.Status) != filter.Status {
		return false
	}
	if filter.Priority != "" && string(rec.Priority) != filter.Priority {
		return false
	}
	if filter.County != "" && rec.County != filter.County {
		return false
	}
	if filter.SearchTerm != "" && !matchesSearch(rec, filter.SearchTerm) {
		return false
	}
	return true
}

// matchesSearch reports whether term occurs in any searchable field.
func matchesSearch(rec models.IncidentRecord, term string) bool {
	needle := strings.ToLower(term)
	for _, field := range []string{rec.Description, rec.Location, rec.County, rec.ID} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64OrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
