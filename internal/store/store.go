// Package store holds the session-lifetime state shared across workflows:
// the latest forecast result and the count of requests in flight. It is
// constructed once at process start and passed explicitly; there are no
// package-level singletons.
package store

import (
	"sync"

	"github.com/google/uuid"

	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/common/metrics"
	"marketing-studio/internal/models"
)

// SessionStore is the only cross-workflow mutable resource. Writes are whole
// value replacements; reads are snapshot reads. The forecast workflow is the
// only writer of the forecast result.
type SessionStore struct {
	mu          sync.RWMutex
	sessionID   string
	forecast    *models.ForecastResult
	inFlight    int
	subscribers map[int]func()
	nextSubID   int
	logger      logger.Logger
}

func New(log logger.Logger) *SessionStore {
	id := uuid.NewString()
	return &SessionStore{
		sessionID:   id,
		subscribers: make(map[int]func()),
		logger: log.With(map[string]interface{}{
			"component": "store",
			"sessionId": id,
		}),
	}
}

// SessionID identifies this session in logs.
func (s *SessionStore) SessionID() string {
	return s.sessionID
}

// ForecastResult returns a snapshot of the latest stored forecast, if any.
func (s *SessionStore) ForecastResult() (models.ForecastResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.forecast == nil {
		return models.ForecastResult{}, false
	}
	return *s.forecast, true
}

// SetForecastResult replaces the stored forecast atomically. Readers never
// observe a partially written value.
func (s *SessionStore) SetForecastResult(result models.ForecastResult) {
	s.mu.Lock()
	s.forecast = &result
	listeners := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	s.logger.Info("forecast result stored", map[string]interface{}{
		"segmentCount":       result.SegmentCount,
		"campaignType":       result.RecommendedCampaignType,
		"successProbability": result.SuccessProbability,
	})

	// Notify outside the lock so a subscriber reading back cannot deadlock.
	for _, fn := range listeners {
		fn()
	}
}

// BeginRequest marks one more backend request in flight.
func (s *SessionStore) BeginRequest() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	metrics.RequestsInFlight.Inc()
}

// EndRequest marks one backend request settled. An unpaired call is ignored
// so the gauge stays in step with the counter.
func (s *SessionStore) EndRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == 0 {
		return
	}
	s.inFlight--
	metrics.RequestsInFlight.Dec()
}

// Busy reports whether any workflow has a request in flight. The flag is
// advisory, used only to drive a page-level spinner; each workflow's own
// lifecycle state stays authoritative for its UI.
func (s *SessionStore) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// InFlight returns the current number of requests in flight.
func (s *SessionStore) InFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight
}

// Subscribe registers fn to run after every forecast replacement and returns
// an unsubscribe function. Independently mounted pages use this to re-render.
func (s *SessionStore) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) snapshotSubscribersLocked() []func() {
	listeners := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	return listeners
}
