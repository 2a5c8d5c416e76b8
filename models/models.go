package models

import "time"

// Priority is the assessed severity of an incident.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid reports whether p is one of the known priority levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Status is the workflow state of an incident. Transitions are not
// ordered; any valid status can be set at any time.
type Status string

const (
	StatusReported      Status = "reported"
	StatusVerified      Status = "verified"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusClosed        Status = "closed"
)

// IsValid reports whether s is one of the known workflow states.
func (s Status) IsValid() bool {
	switch s {
	case StatusReported, StatusVerified, StatusInvestigating, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Casualties holds the human impact counts of an incident.
type Casualties struct {
	Deaths   int `json:"deaths"`
	Injuries int `json:"injuries"`
	Missing  int `json:"missing"`
}

// Total returns the combined human impact.
func (c Casualties) Total() int {
	return c.Deaths + c.Injuries + c.Missing
}

// LivestockStolen holds per-species counts of stolen animals.
type LivestockStolen struct {
	Cattle int `json:"cattle"`
	Goats  int `json:"goats"`
	Sheep  int `json:"sheep"`
	Camels int `json:"camels"`
	Other  int `json:"other"`
}

// Total returns the combined number of stolen animals.
func (l LivestockStolen) Total() int {
	return l.Cattle + l.Goats + l.Sheep + l.Camels + l.Other
}

// IncidentRecord is one security incident as stored and served. Seq is
// the insertion-ordered database sequence used by the live feed cursor;
// ID is the stable public identifier.
type IncidentRecord struct {
	Seq                int64           `json:"seq"`
	ID                 string          `json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	IncidentType       string          `json:"incident_type"`
	County             string          `json:"county"`
	SubCounty          *string         `json:"sub_county,omitempty"`
	Location           string          `json:"location"`
	IncidentDate       time.Time       `json:"incident_date"`
	ReportedDate       time.Time       `json:"reported_date"`
	Priority           Priority        `json:"priority"`
	Status             Status          `json:"status"`
	Description        string          `json:"description"`
	ActionsTaken       *string         `json:"actions_taken,omitempty"`
	Casualties         Casualties      `json:"casualties"`
	LivestockStolen    LivestockStolen `json:"livestock_stolen"`
	ReporterName       *string         `json:"reporter_name,omitempty"`
	ReporterPhone      *string         `json:"reporter_phone,omitempty"`
	IsAnonymous        bool            `json:"is_anonymous"`
	IsVerified         bool            `json:"is_verified"`
	RespondingAgencies []string        `json:"responding_agencies"`
	ResponseTimeMs     *int64          `json:"response_time_ms,omitempty"`
}

// TotalCasualties returns the combined human impact of the incident.
func (r IncidentRecord) TotalCasualties() int {
	return r.Casualties.Total()
}

// TotalLivestock returns the combined number of stolen animals.
func (r IncidentRecord) TotalLivestock() int {
	return r.LivestockStolen.Total()
}

// ForDisplay returns a copy safe to send to clients. Anonymous reports
// never expose reporter contact details, even when they were stored.
func (r IncidentRecord) ForDisplay() IncidentRecord {
	if r.IsAnonymous {
		r.ReporterName = nil
		r.ReporterPhone = nil
	}
	return r
}

// TrendPoint is one day's aggregated counts in a trend series.
type TrendPoint struct {
	Date      string `json:"date"`
	Incidents int    `json:"incidents"`
	Critical  int    `json:"critical"`
	Resolved  int    `json:"resolved"`
}

// Reporter is a registered field reporter organization or individual.
type Reporter struct {
	ReporterID string     `json:"reporter_id"`
	Name       string     `json:"name"`
	OrgType    string     `json:"org_type"`
	Status     string     `json:"status"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ReporterKey is an API key credential owned by a reporter. KeyHash is
// a bcrypt hash; the secret itself is returned once at registration and
// never stored.
type ReporterKey struct {
	KeyID      string    `json:"key_id"`
	ReporterID string    `json:"reporter_id"`
	KeyPrefix  string    `json:"key_prefix"`
	KeyHash    string    `json:"-"`
	Scopes     []string  `json:"scopes"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// IncidentsResponse is the list payload for dashboard reads.
type IncidentsResponse struct {
	Incidents []IncidentRecord `json:"incidents"`
	Count     int              `json:"count"`
}

// IncidentBatch is the payload broadcast to WebSocket clients when new
// incidents arrive.
type IncidentBatch struct {
	Incidents []IncidentRecord `json:"incidents"`
	Count     int              `json:"count"`
	FromSeq   int64            `json:"from_seq"`
	ToSeq     int64            `json:"to_seq"`
}

// BroadcastMessage is the envelope for all WebSocket messages.
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
	LastBroadcastSeq int64  `json:"last_broadcast_seq"`
	EventsConnected  bool   `json:"events_connected"`
}
