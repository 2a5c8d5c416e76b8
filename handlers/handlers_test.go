package handlers

import (
	"strings"
	"testing"
	"time"

	"incident-dashboard/config"
	"incident-dashboard/counties"
	"incident-dashboard/engine"
	"incident-dashboard/models"
)

func testHandlers() *Handlers {
	matcher := counties.NewMatcher([]string{"Turkana", "West Pokot", "Baringo", "Elgeyo Marakwet"})
	return NewHandlers(&config.Config{}, nil, nil, nil, matcher)
}

func validSubmitItem() submitIncidentItem {
	return submitIncidentItem{
		IncidentType: "cattle_rustling",
		County:       "turkana",
		Location:     "Kapedo",
		IncidentDate: "2026-08-19T06:30:00Z",
		Description:  "Armed raiders drove off livestock at dawn",
		Casualties:   models.Casualties{Deaths: 1, Injuries: 2},
	}
}

func TestBuildIncidentValid(t *testing.T) {
	h := testHandlers()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	rec, reason := h.buildIncident(validSubmitItem(), now)
	if reason != "" {
		t.Fatalf("buildIncident() reason = %q, want accepted", reason)
	}
	if rec.ID == "" {
		t.Error("buildIncident() left ID empty")
	}
	if rec.County != "Turkana" {
		t.Errorf("County = %q, want canonical %q", rec.County, "Turkana")
	}
	if rec.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want default %q", rec.Priority, models.PriorityMedium)
	}
	if rec.Status != models.StatusReported {
		t.Errorf("Status = %q, want %q", rec.Status, models.StatusReported)
	}
	if !rec.ReportedDate.Equal(now) {
		t.Errorf("ReportedDate = %v, want submission time %v", rec.ReportedDate, now)
	}
	if rec.SubCounty != nil || rec.ReporterName != nil {
		t.Error("buildIncident() set pointers for absent optional fields")
	}
}

func TestBuildIncidentOptionalFields(t *testing.T) {
	h := testHandlers()
	item := validSubmitItem()
	item.SubCounty = "  Turkana East "
	item.ReportedDate = "2026-08-19T09:00:00Z"
	item.Priority = "CRITICAL"
	item.ReporterName = "J. Ekai"
	item.RespondingAgencies = []string{" KPR ", "", "Police"}

	rec, reason := h.buildIncident(item, time.Now().UTC())
	if reason != "" {
		t.Fatalf("buildIncident() reason = %q, want accepted", reason)
	}
	if rec.SubCounty == nil || *rec.SubCounty != "Turkana East" {
		t.Errorf("SubCounty = %v, want %q", rec.SubCounty, "Turkana East")
	}
	if want := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC); !rec.ReportedDate.Equal(want) {
		t.Errorf("ReportedDate = %v, want %v", rec.ReportedDate, want)
	}
	if rec.Priority != models.PriorityCritical {
		t.Errorf("Priority = %q, want %q", rec.Priority, models.PriorityCritical)
	}
	if rec.ReporterName == nil || *rec.ReporterName != "J. Ekai" {
		t.Errorf("ReporterName = %v, want %q", rec.ReporterName, "J. Ekai")
	}
	if len(rec.RespondingAgencies) != 2 || rec.RespondingAgencies[0] != "KPR" || rec.RespondingAgencies[1] != "Police" {
		t.Errorf("RespondingAgencies = %v, want [KPR Police]", rec.RespondingAgencies)
	}
}

func TestBuildIncidentRejections(t *testing.T) {
	h := testHandlers()
	now := time.Now().UTC()

	tests := []struct {
		name   string
		mutate func(*submitIncidentItem)
		reason string
	}{
		{"missing description", func(i *submitIncidentItem) { i.Description = "  " }, "description is required"},
		{"missing location", func(i *submitIncidentItem) { i.Location = "" }, "location is required"},
		{"missing incident type", func(i *submitIncidentItem) { i.IncidentType = "" }, "incident_type is required"},
		{"unknown county", func(i *submitIncidentItem) { i.County = "Nairobi" }, "unknown county"},
		{"bad incident date", func(i *submitIncidentItem) { i.IncidentDate = "19/08/2026" }, "incident_date must be RFC 3339"},
		{"missing incident date", func(i *submitIncidentItem) { i.IncidentDate = "" }, "incident_date must be RFC 3339"},
		{"bad reported date", func(i *submitIncidentItem) { i.ReportedDate = "yesterday" }, "reported_date must be RFC 3339"},
		{"invalid priority", func(i *submitIncidentItem) { i.Priority = "urgent" }, "invalid priority"},
		{"negative casualties", func(i *submitIncidentItem) { i.Casualties.Deaths = -1 }, "casualty counts cannot be negative"},
		{"negative livestock", func(i *submitIncidentItem) { i.LivestockStolen.Goats = -5 }, "livestock counts cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validSubmitItem()
			tt.mutate(&item)
			if _, reason := h.buildIncident(item, now); reason != tt.reason {
				t.Errorf("buildIncident() reason = %q, want %q", reason, tt.reason)
			}
		})
	}
}

func TestParseSortParams(t *testing.T) {
	spec, err := parseSortParams("", "")
	if err != nil {
		t.Fatalf("parseSortParams(\"\", \"\") error = %v", err)
	}
	if spec.Field != engine.SortFieldIncidentDate || spec.Direction != engine.SortDescending {
		t.Errorf("default spec = %+v, want incidentDate desc", spec)
	}

	spec, err = parseSortParams("county", "asc")
	if err != nil {
		t.Fatalf("parseSortParams(county, asc) error = %v", err)
	}
	if spec.Field != engine.SortFieldCounty || spec.Direction != engine.SortAscending {
		t.Errorf("spec = %+v, want county asc", spec)
	}

	if _, err = parseSortParams("county", "upward"); err == nil {
		t.Error("parseSortParams(county, upward) error = nil, want error")
	}
}

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		raw     string
		def     int
		want    int
		wantErr bool
	}{
		{"", 500, 500, false},
		{"25", 500, 25, false},
		{"0", 500, 0, true},
		{"-3", 500, 0, true},
		{"abc", 500, 0, true},
	}
	for _, tt := range tests {
		got, err := parsePositiveInt(tt.raw, tt.def)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePositiveInt(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parsePositiveInt(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	if got, err := parseIntDefault("", 7); err != nil || got != 7 {
		t.Errorf("parseIntDefault(\"\") = %d, %v, want 7, nil", got, err)
	}
	if got, err := parseIntDefault("0", 7); err != nil || got != 0 {
		t.Errorf("parseIntDefault(\"0\") = %d, %v, want 0, nil", got, err)
	}
	if got, err := parseIntDefault("-2", 7); err != nil || got != -2 {
		t.Errorf("parseIntDefault(\"-2\") = %d, %v, want -2, nil", got, err)
	}
	if _, err := parseIntDefault("week", 7); err == nil {
		t.Error("parseIntDefault(\"week\") error = nil, want error")
	}
}

func TestNormalizeOrgType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"agency", "agency"},
		{" Partner ", "partner"},
		{"COMMUNITY", "community"},
		{"ngo", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := normalizeOrgType(tt.raw); got != tt.want {
			t.Errorf("normalizeOrgType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestClampStr(t *testing.T) {
	if got := clampStr("short", 10); got != "short" {
		t.Errorf("clampStr(short, 10) = %q", got)
	}
	if got := clampStr("truncate me", 8); got != "truncate" {
		t.Errorf("clampStr(truncate me, 8) = %q", got)
	}
	// Counted in runes, not bytes.
	if got := clampStr("Murang'a ward £££", 15); got != "Murang'a ward £" {
		t.Errorf("clampStr rune clamp = %q", got)
	}
}

func TestCleanList(t *testing.T) {
	got := cleanList([]string{" KPR ", "", "  ", "Police", strings.Repeat("x", 200)})
	if len(got) != 3 {
		t.Fatalf("cleanList() kept %d entries, want 3", len(got))
	}
	if got[0] != "KPR" || got[1] != "Police" {
		t.Errorf("cleanList() = %v", got[:2])
	}
	if len(got[2]) != 128 {
		t.Errorf("cleanList() long entry length = %d, want 128", len(got[2]))
	}
}

func TestAllowRegistration(t *testing.T) {
	ip := "10.9.8.7"
	for i := 0; i < 3; i++ {
		if !allowRegistration(ip, 3) {
			t.Fatalf("allowRegistration() call %d = false, want true", i+1)
		}
	}
	if allowRegistration(ip, 3) {
		t.Error("allowRegistration() over limit = true, want false")
	}
	if !allowRegistration("10.9.8.8", 3) {
		t.Error("allowRegistration() fresh ip = false, want true")
	}
	if !allowRegistration(ip, 0) {
		t.Error("allowRegistration() with limit disabled = false, want true")
	}
}
