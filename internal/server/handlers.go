package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/aristath/intraday-trader/internal/modules/market_hours"
)

// handleLiveness handles bare liveness probes
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "intraday-trader",
	})
}

// handleHealth returns the full health report
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, report)
}

// handleAllStatuses returns monitoring snapshots for all active regions
func (s *Server) handleAllStatuses(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions": s.monitor.AllStatuses(),
	})
}

// handleRegionStatus returns one region's monitoring snapshot.
// A valid region that was never started reports zero values; only an
// unknown region name is a client error.
func (s *Server) handleRegionStatus(w http.ResponseWriter, r *http.Request) {
	region, err := domain.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.monitor.Status(region))
}

// handleAllMarkets returns session state for every supported market
func (s *Server) handleAllMarkets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"markets": s.detector.AllStatuses(time.Now()),
	})
}

// handleRegionMarket returns session state for one market
func (s *Server) handleRegionMarket(w http.ResponseWriter, r *http.Request) {
	region, err := domain.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	status, err := s.detector.Status(region, time.Now())
	if err != nil {
		if errors.Is(err, market_hours.ErrUnsupportedRegion) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
