// Package api serves the HTTP status API and the live websocket mirror of
// the text feed.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/uatfeed/internal/auth"
	"github.com/unklstewy/uatfeed/internal/feed"
	"github.com/unklstewy/uatfeed/internal/ingest"
	"github.com/unklstewy/uatfeed/internal/report"
	"github.com/unklstewy/uatfeed/internal/tracker"
	"github.com/unklstewy/uatfeed/pkg/config"
	"github.com/unklstewy/uatfeed/pkg/uat"
)

// Server holds the HTTP API and its dependencies.
type Server struct {
	router   *chi.Mux
	tracker  *tracker.Tracker
	reporter *report.Reporter
	ingest   *ingest.Client
	hub      *feed.Hub
	authSvc  *auth.Service // nil when auth is disabled
	limiter  *feedLimiter
	cfg      config.APIConfig
	started  time.Time
}

// NewServer creates the API server. ingest may be nil when reading from
// stdin stats are not available.
func NewServer(cfg config.APIConfig, tr *tracker.Tracker, rep *report.Reporter, ing *ingest.Client, hub *feed.Hub) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		tracker:  tr,
		reporter: rep,
		ingest:   ing,
		hub:      hub,
		limiter:  newFeedLimiter(cfg.MaxFeedConnsPerIP),
		cfg:      cfg,
		started:  time.Now(),
	}
	if cfg.JWTSecret != "" {
		s.authSvc = auth.NewService(auth.Config{JWTSecret: cfg.JWTSecret})
	}
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// CORS so browser map clients can poll the aircraft list
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.authSvc != nil {
			r.Use(s.authMiddleware)
		}

		r.Get("/status", s.handleStatus)
		r.Get("/aircraft", s.handleGetAircraft)
		r.Get("/aircraft/{address}", s.handleGetAircraftByAddress)
		r.Get("/feed", s.handleFeed)
	})
}

// authMiddleware rejects requests without a valid bearer token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			// Websocket clients cannot set headers from browsers; allow
			// the token as a query parameter on the feed endpoint.
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if _, err := s.authSvc.ValidateToken(token); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusResponse is the body of GET /api/v1/status.
type statusResponse struct {
	UptimeSeconds   float64       `json:"uptime_seconds"`
	Tracked         int           `json:"tracked"`
	Reporter        report.Stats  `json:"reporter"`
	Ingest          *ingest.Stats `json:"ingest,omitempty"`
	FeedSubscribers int           `json:"feed_subscribers"`
	FeedDropped     int64         `json:"feed_dropped"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		UptimeSeconds:   time.Since(s.started).Seconds(),
		Tracked:         s.tracker.Len(),
		Reporter:        s.reporter.Stats(),
		FeedSubscribers: s.hub.Subscribers(),
		FeedDropped:     s.hub.Dropped(),
	}
	if s.ingest != nil {
		stats := s.ingest.Stats()
		resp.Ingest = &stats
	}
	writeJSON(w, resp)
}

func (s *Server) handleGetAircraft(w http.ResponseWriter, r *http.Request) {
	aircraft := s.tracker.Aircraft()
	now := time.Now()

	list := make([]aircraftJSON, 0, len(aircraft))
	for _, ac := range aircraft {
		list = append(list, aircraftView(&ac, now))
	}
	writeJSON(w, list)
}

func (s *Server) handleGetAircraftByAddress(w http.ResponseWriter, r *http.Request) {
	addrStr := chi.URLParam(r, "address")
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil || addr > 0xFFFFFF {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return
	}

	// The same airframe can be tracked under more than one qualifier;
	// return every match.
	now := time.Now()
	var list []aircraftJSON
	for key, ac := range s.tracker.Aircraft() {
		if key.Address == uint32(addr) {
			list = append(list, aircraftView(&ac, now))
		}
	}
	if len(list) == 0 {
		http.Error(w, "aircraft not found", http.StatusNotFound)
		return
	}
	writeJSON(w, list)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// aircraftJSON is the wire form of one tracked target; optional fields
// are omitted when their aged field has never been set.
type aircraftJSON struct {
	Address          string   `json:"address"`
	AddressQualifier string   `json:"address_qualifier"`
	Messages         int      `json:"messages"`
	AgeSeconds       float64  `json:"age_seconds"`
	Callsign         *string  `json:"callsign,omitempty"`
	Squawk           *string  `json:"squawk,omitempty"`
	Emergency        *string  `json:"emergency,omitempty"`
	PressureAltitude *int     `json:"pressure_altitude,omitempty"`
	GeometricAlt     *int     `json:"geometric_altitude,omitempty"`
	GroundSpeed      *int     `json:"ground_speed,omitempty"`
	TrueTrack        *float64 `json:"true_track,omitempty"`
	VerticalRate     *int     `json:"vertical_rate,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	NIC              *int     `json:"nic,omitempty"`
}

func aircraftView(ac *uat.AircraftState, now time.Time) aircraftJSON {
	v := aircraftJSON{
		Address:          strconv.FormatUint(uint64(ac.Address), 16),
		AddressQualifier: ac.Qualifier.String(),
		Messages:         ac.Messages,
		AgeSeconds:       now.Sub(ac.LastMessageTime).Seconds(),
	}
	if ac.Callsign.Valid() {
		cs := ac.Callsign.Value()
		v.Callsign = &cs
	}
	if ac.FlightPlanID.Valid() {
		sq := ac.FlightPlanID.Value()
		v.Squawk = &sq
	}
	if ac.Emergency.Valid() && ac.Emergency.Value() != uat.EmergencyNone {
		em := emergencyName(ac.Emergency.Value())
		v.Emergency = &em
	}
	if ac.PressureAltitude.Valid() {
		alt := ac.PressureAltitude.Value()
		v.PressureAltitude = &alt
	}
	if ac.GeometricAltitude.Valid() {
		alt := ac.GeometricAltitude.Value()
		v.GeometricAlt = &alt
	}
	if ac.GroundSpeed.Valid() {
		gs := ac.GroundSpeed.Value()
		v.GroundSpeed = &gs
	}
	if ac.TrueTrack.Valid() {
		tt := ac.TrueTrack.Value()
		v.TrueTrack = &tt
	}
	if ac.VerticalRateBaro.Valid() {
		vr := ac.VerticalRateBaro.Value()
		v.VerticalRate = &vr
	}
	if ac.Position.Valid() {
		p := ac.Position.Value()
		v.Latitude = &p.Lat
		v.Longitude = &p.Lon
	}
	if ac.NIC.Valid() {
		nic := ac.NIC.Value()
		v.NIC = &nic
	}
	return v
}

func emergencyName(e uat.EmergencyStatus) string {
	switch e {
	case uat.EmergencyNone:
		return "none"
	case uat.EmergencyGeneral:
		return "general"
	case uat.EmergencyMedical:
		return "medical"
	case uat.EmergencyMinFuel:
		return "minfuel"
	case uat.EmergencyNoComm:
		return "nordo"
	case uat.EmergencyUnlawful:
		return "unlawful"
	case uat.EmergencyDowned:
		return "downed"
	default:
		return "unknown"
	}
}
