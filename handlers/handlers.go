// Package handlers wires the HTTP API to the core engine, metrics, and
// store.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"incident-dashboard/config"
	"incident-dashboard/counties"
	"incident-dashboard/database"
	"incident-dashboard/engine"
	"incident-dashboard/metrics"
	"incident-dashboard/models"
	"incident-dashboard/rabbitmq"
	ws "incident-dashboard/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Routing keys on the incident event exchange.
const (
	eventIncidentSubmitted     = "incident.submitted"
	eventIncidentStatusChanged = "incident.status_changed"
	eventIncidentVerified      = "incident.verified"
)

// Handlers holds the dependencies of all HTTP endpoints.
type Handlers struct {
	cfg       *config.Config
	db        *database.Service
	hub       *ws.Hub
	publisher *rabbitmq.Publisher
	matcher   *counties.Matcher
}

// NewHandlers creates the handler set. The publisher may be nil when
// event publishing is disabled.
func NewHandlers(cfg *config.Config, db *database.Service, hub *ws.Hub, publisher *rabbitmq.Publisher, matcher *counties.Matcher) *Handlers {
	return &Handlers{
		cfg:       cfg,
		db:        db,
		hub:       hub,
		publisher: publisher,
		matcher:   matcher,
	}
}

// GetIncidents serves the filtered, sorted dashboard list.
func (h *Handlers) GetIncidents(c *gin.Context) {
	filter := engine.FilterSpec{
		SearchTerm: c.Query("search"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		County:     c.Query("county"),
	}
	if filter.Status != "" && !models.Status(filter.Status).IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}
	if filter.Priority != "" && !models.Priority(filter.Priority).IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority filter"})
		return
	}

	sortSpec, err := parseSortParams(c.Query("sort_by"), c.Query("sort_order"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, err := parsePositiveInt(c.Query("limit"), h.cfg.SnapshotLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	// The store prefilter only trims rows; the engine owns the
	// filtering semantics, including search.
	records, err := h.db.GetIncidents(c.Request.Context(), database.StoreFilter{
		County:   filter.County,
		Status:   filter.Status,
		Priority: filter.Priority,
		Limit:    limit,
	})
	if err != nil {
		log.Errorf("Failed to load incidents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	view, err := engine.Apply(records, filter, sortSpec)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidSortField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("Failed to build incident view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	for i := range view {
		view[i] = view[i].ForDisplay()
	}
	c.JSON(http.StatusOK, models.IncidentsResponse{Incidents: view, Count: len(view)})
}

// GetIncidentByID serves one incident by its public id.
func (h *Handlers) GetIncidentByID(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id parameter is required"})
		return
	}

	rec, err := h.db.GetIncidentByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.Errorf("Failed to load incident %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, rec.ForDisplay())
}

// GetSummary serves the headline dashboard counters.
func (h *Handlers) GetSummary(c *gin.Context) {
	records, err := h.db.GetIncidents(c.Request.Context(), database.StoreFilter{})
	if err != nil {
		log.Errorf("Failed to load incidents for summary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, metrics.Summarize(records))
}

// GetTrends serves the daily trend series over a trailing window.
func (h *Handlers) GetTrends(c *gin.Context) {
	days, err := parseIntDefault(c.Query("days"), h.cfg.TrendWindowDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
		return
	}

	records, err := h.db.GetIncidents(c.Request.Context(), database.StoreFilter{})
	if err != nil {
		log.Errorf("Failed to load incidents for trends: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	points, err := metrics.BucketByDay(records, days)
	if err != nil {
		if errors.Is(err, metrics.ErrInvalidWindow) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("Failed to bucket trends: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	scaled := metrics.ScaleForDisplay(points)

	c.JSON(http.StatusOK, gin.H{
		"window_days": days,
		"max_value":   scaled.MaxValue,
		"points":      points,
		"scaled":      scaled.Points,
	})
}

type updateStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UpdateStatus moves an incident to a new workflow state and returns
// the refreshed record.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	status := models.Status(req.Status)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if err := h.db.UpdateStatus(c.Request.Context(), req.ID, status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.Errorf("Failed to update status for %s: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	rec, err := h.db.GetIncidentByID(c.Request.Context(), req.ID)
	if err != nil {
		log.Errorf("Failed to reload incident %s: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.publishEvent(eventIncidentStatusChanged, map[string]interface{}{
		"seq":    rec.Seq,
		"id":     rec.ID,
		"status": rec.Status,
	})

	c.JSON(http.StatusOK, rec.ForDisplay())
}

type verifyIncidentRequest struct {
	ID       string `json:"id"`
	Verified *bool  `json:"verified"`
}

// VerifyIncident sets or clears the verification flag and returns the
// refreshed record.
func (h *Handlers) VerifyIncident(c *gin.Context) {
	var req verifyIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if req.Verified == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verified is required"})
		return
	}

	if err := h.db.SetVerified(c.Request.Context(), req.ID, *req.Verified); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.Errorf("Failed to update verification for %s: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	rec, err := h.db.GetIncidentByID(c.Request.Context(), req.ID)
	if err != nil {
		log.Errorf("Failed to reload incident %s: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.publishEvent(eventIncidentVerified, map[string]interface{}{
		"seq":         rec.Seq,
		"id":          rec.ID,
		"is_verified": rec.IsVerified,
	})

	c.JSON(http.StatusOK, rec.ForDisplay())
}

// HealthCheck reports service liveness and live feed stats.
func (h *Handlers) HealthCheck(c *gin.Context) {
	clients, lastSeq := h.hub.GetStats()
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		Service:          "incident-dashboard",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: clients,
		LastBroadcastSeq: lastSeq,
		EventsConnected:  h.publisher != nil && h.publisher.IsConnected(),
	})
}

// publishEvent emits a lifecycle event when publishing is enabled.
// Failures are logged; events never fail the request.
func (h *Handlers) publishEvent(routingKey string, payload map[string]interface{}) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishWithRoutingKey(routingKey, payload); err != nil {
		log.Warnf("Failed to publish %s event: %v", routingKey, err)
	}
}

// parseSortParams maps query parameters onto a sort spec. Field
// validity is the engine's call; only the direction is checked here.
func parseSortParams(sortBy, sortOrder string) (engine.SortSpec, error) {
	spec := engine.SortSpec{
		Field:     engine.SortFieldIncidentDate,
		Direction: engine.SortDescending,
	}
	if sortBy != "" {
		spec.Field = engine.SortField(sortBy)
	}
	if sortOrder != "" {
		switch engine.SortDirection(sortOrder) {
		case engine.SortAscending:
			spec.Direction = engine.SortAscending
		case engine.SortDescending:
			spec.Direction = engine.SortDescending
		default:
			return spec, fmt.Errorf("sort_order must be asc or desc")
		}
	}
	return spec, nil
}

// parsePositiveInt parses an optional query parameter that must be a
// positive integer when present.
func parsePositiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

// parseIntDefault parses an optional integer query parameter, keeping
// the default when absent. Range checks are left to the consumer.
func parseIntDefault(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
