package models

import "testing"

func TestCasualtiesTotal(t *testing.T) {
	tests := []struct {
		name       string
		casualties Casualties
		expected   int
	}{
		{
			name:       "all zero",
			casualties: Casualties{},
			expected:   0,
		},
		{
			name:       "deaths only",
			casualties: Casualties{Deaths: 3},
			expected:   3,
		},
		{
			name:       "all categories",
			casualties: Casualties{Deaths: 2, Injuries: 5, Missing: 1},
			expected:   8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.casualties.Total(); got != tt.expected {
				t.Errorf("Total() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLivestockStolenTotal(t *testing.T) {
	tests := []struct {
		name      string
		livestock LivestockStolen
		expected  int
	}{
		{
			name:      "all zero",
			livestock: LivestockStolen{},
			expected:  0,
		},
		{
			name:      "cattle and goats",
			livestock: LivestockStolen{Cattle: 40, Goats: 12},
			expected:  52,
		},
		{
			name:      "every species",
			livestock: LivestockStolen{Cattle: 1, Goats: 2, Sheep: 3, Camels: 4, Other: 5},
			expected:  15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.livestock.Total(); got != tt.expected {
				t.Errorf("Total() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPriorityIsValid(t *testing.T) {
	tests := []struct {
		name     string
		priority Priority
		expected bool
	}{
		{"low", PriorityLow, true},
		{"medium", PriorityMedium, true},
		{"high", PriorityHigh, true},
		{"critical", PriorityCritical, true},
		{"empty", Priority(""), false},
		{"unknown", Priority("urgent"), false},
		{"wrong case", Priority("Critical"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.priority.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"reported", StatusReported, true},
		{"verified", StatusVerified, true},
		{"investigating", StatusInvestigating, true},
		{"resolved", StatusResolved, true},
		{"closed", StatusClosed, true},
		{"empty", Status(""), false},
		{"unknown", Status("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestForDisplay(t *testing.T) {
	name := "Jane Ekiru"
	phone := "+254700000001"

	anonymous := IncidentRecord{
		ID:            "a1",
		ReporterName:  &name,
		ReporterPhone: &phone,
		IsAnonymous:   true,
	}
	display := anonymous.ForDisplay()
	if display.ReporterName != nil {
		t.Errorf("ForDisplay() reporter name = %v, want nil for anonymous report", *display.ReporterName)
	}
	if display.ReporterPhone != nil {
		t.Errorf("ForDisplay() reporter phone = %v, want nil for anonymous report", *display.ReporterPhone)
	}
	// The stored record must keep its fields.
	if anonymous.ReporterName == nil || *anonymous.ReporterName != name {
		t.Error("ForDisplay() modified the original record")
	}

	named := IncidentRecord{
		ID:            "a2",
		ReporterName:  &name,
		ReporterPhone: &phone,
		IsAnonymous:   false,
	}
	display = named.ForDisplay()
	if display.ReporterName == nil || *display.ReporterName != name {
		t.Errorf("ForDisplay() dropped reporter name for a non-anonymous report")
	}
	if display.ReporterPhone == nil || *display.ReporterPhone != phone {
		t.Errorf("ForDisplay() dropped reporter phone for a non-anonymous report")
	}
}

func TestIncidentRecordTotals(t *testing.T) {
	rec := IncidentRecord{
		Casualties:      Casualties{Deaths: 1, Injuries: 2, Missing: 0},
		LivestockStolen: LivestockStolen{Cattle: 30, Goats: 10},
	}
	if got := rec.TotalCasualties(); got != 3 {
		t.Errorf("TotalCasualties() = %v, want %v", got, 3)
	}
	if got := rec.TotalLivestock(); got != 40 {
		t.Errorf("TotalLivestock() = %v, want %v", got, 40)
	}
}
