package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"incident-dashboard/database"
	"incident-dashboard/middleware"
	"incident-dashboard/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const reporterKeyBcryptCost = 10

// Sliding one-hour registration window per source IP. Open registration
// would otherwise let one host mint keys without bound.
type regWindow struct {
	windowStart time.Time
	count       int
}

var (
	regMu   sync.Mutex
	regByIP = make(map[string]regWindow)
)

func allowRegistration(ip string, maxPerHour int) bool {
	if maxPerHour <= 0 {
		return true
	}

	now := time.Now()
	regMu.Lock()
	defer regMu.Unlock()

	w := regByIP[ip]
	if now.Sub(w.windowStart) > time.Hour {
		w = regWindow{windowStart: now}
	}
	if w.count >= maxPerHour {
		regByIP[ip] = w
		return false
	}
	w.count++
	regByIP[ip] = w
	return true
}

type registerReporterRequest struct {
	Name    string `json:"name"`
	OrgType string `json:"org_type"`
}

type registerReporterResponse struct {
	ReporterID string   `json:"reporter_id"`
	APIKey     string   `json:"api_key"`
	Status     string   `json:"status"`
	Scopes     []string `json:"scopes"`
}

// RegisterReporter mints a reporter identity and its API key. The key
// secret is returned exactly once; only its bcrypt hash is stored.
func (h *Handlers) RegisterReporter(c *gin.Context) {
	if !allowRegistration(c.ClientIP(), h.cfg.ReporterRegisterMaxPerHour) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "registration rate limit exceeded"})
		return
	}

	var req registerReporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	name := clampStr(strings.TrimSpace(req.Name), 255)
	if name == "" {
		name = "anonymous"
	}
	orgType := normalizeOrgType(req.OrgType)

	reporterID := uuid.New().String()
	keyID := uuid.New().String()

	secret, err := randSecretBase64URL(32)
	if err != nil {
		log.Errorf("Failed to generate key secret: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), reporterKeyBcryptCost)
	if err != nil {
		log.Errorf("Failed to hash key secret: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	prefix := middleware.KeyPrefixForEnv(h.cfg.ReporterKeyEnv)
	scopes := []string{middleware.ScopeIncidentSubmit, middleware.ScopeReporterRead}

	ctx := c.Request.Context()
	if err := h.db.InsertReporter(ctx, reporterID, name, orgType); err != nil {
		log.Errorf("Failed to register reporter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := h.db.InsertReporterKey(ctx, keyID, reporterID, prefix, string(hash), scopes); err != nil {
		log.Errorf("Failed to store reporter key: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Infof("Registered reporter %s (%s)", reporterID, orgType)

	c.JSON(http.StatusOK, registerReporterResponse{
		ReporterID: reporterID,
		APIKey:     prefix + keyID + "_" + secret,
		Status:     database.ReporterStatusActive,
		Scopes:     scopes,
	})
}

// GetReporterMe returns the authenticated reporter's own profile.
func (h *Handlers) GetReporterMe(c *gin.Context) {
	keyID := middleware.GetReporterKeyIDFromContext(c)
	if keyID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "api key required"})
		return
	}

	key, reporter, err := h.db.GetReporterKey(c.Request.Context(), keyID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		log.Errorf("Failed to load reporter for key %s: %v", keyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reporter_id":  reporter.ReporterID,
		"name":         reporter.Name,
		"org_type":     reporter.OrgType,
		"status":       reporter.Status,
		"scopes":       key.Scopes,
		"last_seen_at": reporter.LastSeenAt,
		"created_at":   reporter.CreatedAt,
	})
}

type setReporterStatusRequest struct {
	ReporterID string `json:"reporter_id"`
	Status     string `json:"status"`
}

// SetReporterStatus gates a misbehaving reporter, or reinstates one.
func (h *Handlers) SetReporterStatus(c *gin.Context) {
	var req setReporterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ReporterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reporter_id is required"})
		return
	}
	if req.Status != database.ReporterStatusActive && req.Status != database.ReporterStatusSuspended {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or suspended"})
		return
	}

	if err := h.db.SetReporterStatus(c.Request.Context(), req.ReporterID, req.Status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reporter not found"})
			return
		}
		log.Errorf("Failed to set reporter %s status: %v", req.ReporterID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Infof("Reporter %s status set to %s", req.ReporterID, req.Status)
	c.JSON(http.StatusOK, gin.H{"reporter_id": req.ReporterID, "status": req.Status})
}

type submitIncidentItem struct {
	IncidentType       string                 `json:"incident_type"`
	County             string                 `json:"county"`
	SubCounty          string                 `json:"sub_county"`
	Location           string                 `json:"location"`
	IncidentDate       string                 `json:"incident_date"`
	ReportedDate       string                 `json:"reported_date"`
	Priority           string                 `json:"priority"`
	Description        string                 `json:"description"`
	ActionsTaken       string                 `json:"actions_taken"`
	Casualties         models.Casualties      `json:"casualties"`
	LivestockStolen    models.LivestockStolen `json:"livestock_stolen"`
	ReporterName       string                 `json:"reporter_name"`
	ReporterPhone      string                 `json:"reporter_phone"`
	IsAnonymous        bool                   `json:"is_anonymous"`
	RespondingAgencies []string               `json:"responding_agencies"`
}

type submitIncidentsRequest struct {
	Items []submitIncidentItem `json:"items"`
}

type submitItemResult struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type submitIncidentsResponse struct {
	Items     []submitItemResult `json:"items"`
	Submitted int                `json:"submitted"`
	Accepted  int                `json:"accepted"`
	Rejected  int                `json:"rejected"`
}

// SubmitIncidents ingests a batch of field reports. Items validate
// independently; one bad item never rejects the batch.
func (h *Handlers) SubmitIncidents(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.SubmitMaxBodyBytes)

	var req submitIncidentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items is required"})
		return
	}
	if len(req.Items) > h.cfg.SubmitMaxBatchItems {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("batch exceeds %d items", h.cfg.SubmitMaxBatchItems)})
		return
	}

	reporterID := middleware.GetReporterIDFromContext(c)
	now := time.Now().UTC()

	results := make([]submitItemResult, 0, len(req.Items))
	accepted := make([]models.IncidentRecord, 0, len(req.Items))
	for _, item := range req.Items {
		rec, reason := h.buildIncident(item, now)
		if reason != "" {
			results = append(results, submitItemResult{Status: "rejected", Reason: reason})
			continue
		}
		accepted = append(accepted, rec)
		results = append(results, submitItemResult{ID: rec.ID, Status: "accepted"})
	}

	if len(accepted) > 0 {
		if err := h.db.CreateIncidents(c.Request.Context(), accepted); err != nil {
			log.Errorf("Failed to store incident batch from reporter %s: %v", reporterID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store incidents"})
			return
		}
		for _, rec := range accepted {
			h.publishEvent(eventIncidentSubmitted, map[string]interface{}{
				"id":            rec.ID,
				"incident_type": rec.IncidentType,
				"county":        rec.County,
				"priority":      rec.Priority,
				"incident_date": rec.IncidentDate,
				"reporter_id":   reporterID,
			})
		}
	}

	log.Infof("Reporter %s submitted %d items: %d accepted, %d rejected",
		reporterID, len(req.Items), len(accepted), len(req.Items)-len(accepted))

	c.JSON(http.StatusOK, submitIncidentsResponse{
		Items:     results,
		Submitted: len(req.Items),
		Accepted:  len(accepted),
		Rejected:  len(req.Items) - len(accepted),
	})
}

// buildIncident validates one submission and shapes it into a record.
// A non-empty reason rejects the item.
func (h *Handlers) buildIncident(item submitIncidentItem, now time.Time) (models.IncidentRecord, string) {
	var rec models.IncidentRecord

	if strings.TrimSpace(item.Description) == "" {
		return rec, "description is required"
	}
	if strings.TrimSpace(item.Location) == "" {
		return rec, "location is required"
	}
	if strings.TrimSpace(item.IncidentType) == "" {
		return rec, "incident_type is required"
	}

	county, ok := h.matcher.Match(item.County)
	if !ok {
		return rec, "unknown county"
	}

	incidentDate, err := parseRFC3339(item.IncidentDate)
	if err != nil {
		return rec, "incident_date must be RFC 3339"
	}
	// Reporters may backdate; no ordering constraint against the
	// incident date.
	reportedDate := now
	if strings.TrimSpace(item.ReportedDate) != "" {
		if reportedDate, err = parseRFC3339(item.ReportedDate); err != nil {
			return rec, "reported_date must be RFC 3339"
		}
	}

	priority := models.PriorityMedium
	if strings.TrimSpace(item.Priority) != "" {
		priority = models.Priority(strings.ToLower(strings.TrimSpace(item.Priority)))
		if !priority.IsValid() {
			return rec, "invalid priority"
		}
	}

	if item.Casualties.Deaths < 0 || item.Casualties.Injuries < 0 || item.Casualties.Missing < 0 {
		return rec, "casualty counts cannot be negative"
	}
	if item.LivestockStolen.Cattle < 0 || item.LivestockStolen.Goats < 0 || item.LivestockStolen.Sheep < 0 ||
		item.LivestockStolen.Camels < 0 || item.LivestockStolen.Other < 0 {
		return rec, "livestock counts cannot be negative"
	}

	rec = models.IncidentRecord{
		ID:                 uuid.New().String(),
		CreatedAt:          now,
		IncidentType:       clampStr(strings.TrimSpace(item.IncidentType), 64),
		County:             county,
		Location:           clampStr(strings.TrimSpace(item.Location), 255),
		IncidentDate:       incidentDate,
		ReportedDate:       reportedDate,
		Priority:           priority,
		Status:             models.StatusReported,
		Description:        clampStr(strings.TrimSpace(item.Description), 8192),
		Casualties:         item.Casualties,
		LivestockStolen:    item.LivestockStolen,
		IsAnonymous:        item.IsAnonymous,
		RespondingAgencies: cleanList(item.RespondingAgencies),
	}
	if s := clampStr(strings.TrimSpace(item.SubCounty), 64); s != "" {
		rec.SubCounty = &s
	}
	if s := clampStr(strings.TrimSpace(item.ActionsTaken), 8192); s != "" {
		rec.ActionsTaken = &s
	}
	if s := clampStr(strings.TrimSpace(item.ReporterName), 255); s != "" {
		rec.ReporterName = &s
	}
	if s := clampStr(strings.TrimSpace(item.ReporterPhone), 32); s != "" {
		rec.ReporterPhone = &s
	}
	return rec, ""
}

func normalizeOrgType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "agency":
		return "agency"
	case "partner":
		return "partner"
	case "community":
		return "community"
	default:
		return "unknown"
	}
}

func randSecretBase64URL(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(s))
}

// clampStr truncates to max runes so multi-byte names survive intact.
func clampStr(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func cleanList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, clampStr(v, 128))
		}
	}
	return out
}
