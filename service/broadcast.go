// Package service runs the background loop that feeds the live
// dashboard: it polls the store for newly ingested incidents and fans
// them out through the WebSocket hub.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"incident-dashboard/database"
	"incident-dashboard/models"
	"incident-dashboard/websocket"

	"github.com/apex/log"
)

// BroadcastService polls for incidents past a sequence cursor and
// broadcasts them. The cursor starts at the store's current maximum so
// a restart does not replay history.
type BroadcastService struct {
	db       *database.Service
	hub      *websocket.Hub
	interval time.Duration

	mu      sync.RWMutex
	lastSeq int64

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewBroadcastService creates the service; Start launches the loop.
func NewBroadcastService(db *database.Service, hub *websocket.Hub, interval time.Duration) *BroadcastService {
	return &BroadcastService{
		db:       db,
		hub:      hub,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start initializes the sequence cursor and launches the poll loop.
func (s *BroadcastService) Start() error {
	latest, err := s.db.GetLatestSeq(context.Background())
	if err != nil {
		return fmt.Errorf("failed to initialize broadcast cursor: %w", err)
	}

	s.mu.Lock()
	s.lastSeq = latest
	s.mu.Unlock()

	s.wg.Add(1)
	go s.broadcastLoop()

	log.Infof("Broadcast service started at seq %d, polling every %v", latest, s.interval)
	return nil
}

// Stop terminates the poll loop and waits for it to finish.
func (s *BroadcastService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	log.Info("Broadcast service stopped")
}

func (s *BroadcastService) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.processNewIncidents(); err != nil {
				log.Errorf("Failed to process new incidents: %v", err)
			}
		}
	}
}

func (s *BroadcastService) processNewIncidents() error {
	s.mu.RLock()
	cursor := s.lastSeq
	s.mu.RUnlock()

	incidents, err := s.db.GetIncidentsSince(context.Background(), cursor)
	if err != nil {
		return err
	}
	if len(incidents) == 0 {
		return nil
	}

	sanitized := make([]models.IncidentRecord, len(incidents))
	for i, rec := range incidents {
		sanitized[i] = rec.ForDisplay()
	}
	s.hub.BroadcastIncidents(sanitized)

	newCursor := incidents[len(incidents)-1].Seq
	s.mu.Lock()
	s.lastSeq = newCursor
	s.mu.Unlock()

	log.Debugf("Processed %d new incidents, cursor now %d", len(incidents), newCursor)
	return nil
}
