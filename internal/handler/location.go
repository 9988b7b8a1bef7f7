package handler

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// LocationHandler verifies that a customer is physically near the restaurant
// before letting them order. The check is gated by the settings toggle and
// compares the haversine distance against the configured geofence radius.
type LocationHandler struct {
	store SettingsStore
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(store SettingsStore) *LocationHandler {
	return &LocationHandler{store: store}
}

type verifyLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type verifyLocationResponse struct {
	Verified    bool    `json:"verified"`
	Distance    float64 `json:"distance"`
	MaxDistance float64 `json:"max_distance,omitempty"`
}

// Verify handles POST /verify-location.
func (h *LocationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "latitude and longitude are required"})
		return
	}

	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant settings not found"})
			return
		}
		log.Printf("ERROR: get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !settings.EnableLocationVerification {
		writeJSON(w, http.StatusOK, verifyLocationResponse{Verified: true, Distance: 0})
		return
	}

	distance := haversine(*req.Latitude, *req.Longitude, settings.Latitude, settings.Longitude)

	writeJSON(w, http.StatusOK, verifyLocationResponse{
		Verified:    distance <= settings.GeofenceRadius,
		Distance:    distance,
		MaxDistance: settings.GeofenceRadius,
	})
}

// haversine returns the great-circle distance in meters between two points.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371e3 // meters

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
