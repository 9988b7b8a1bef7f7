package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/tableside-pos/api/internal/database"
)

// SettingsStore defines the database methods needed by settings handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SettingsStore interface {
	GetSettings(ctx context.Context) (database.Settings, error)
	UpsertSettings(ctx context.Context, arg database.UpsertSettingsParams) (database.Settings, error)
}

// SettingsHandler handles the restaurant settings singleton.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/", h.Save)
}

// --- Request / Response types ---

type settingsRequest struct {
	RestaurantName             string  `json:"restaurant_name"`
	Description                string  `json:"description"`
	Address                    string  `json:"address"`
	Phone                      string  `json:"phone"`
	Email                      string  `json:"email"`
	Website                    string  `json:"website"`
	Latitude                   float64 `json:"latitude"`
	Longitude                  float64 `json:"longitude"`
	GeofenceRadius             float64 `json:"geofence_radius"`
	EnableLocationVerification bool    `json:"enable_location_verification"`
	OrderNotifications         bool    `json:"order_notifications"`
	AutoAcceptOrders           bool    `json:"auto_accept_orders"`
	RequireCustomerName        bool    `json:"require_customer_name"`
	ShowPrices                 bool    `json:"show_prices"`
	EnableSpecialInstructions  bool    `json:"enable_special_instructions"`
	BaseURL                    string  `json:"base_url"`
}

type settingsResponse struct {
	RestaurantName             string    `json:"restaurant_name"`
	Description                *string   `json:"description"`
	Address                    *string   `json:"address"`
	Phone                      *string   `json:"phone"`
	Email                      *string   `json:"email"`
	Website                    *string   `json:"website"`
	Latitude                   float64   `json:"latitude"`
	Longitude                  float64   `json:"longitude"`
	GeofenceRadius             float64   `json:"geofence_radius"`
	EnableLocationVerification bool      `json:"enable_location_verification"`
	OrderNotifications         bool      `json:"order_notifications"`
	AutoAcceptOrders           bool      `json:"auto_accept_orders"`
	RequireCustomerName        bool      `json:"require_customer_name"`
	ShowPrices                 bool      `json:"show_prices"`
	EnableSpecialInstructions  bool      `json:"enable_special_instructions"`
	BaseURL                    string    `json:"base_url"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

func toSettingsResponse(s database.Settings) settingsResponse {
	return settingsResponse{
		RestaurantName:             s.RestaurantName,
		Description:                textPtr(s.Description),
		Address:                    textPtr(s.Address),
		Phone:                      textPtr(s.Phone),
		Email:                      textPtr(s.Email),
		Website:                    textPtr(s.Website),
		Latitude:                   s.Latitude,
		Longitude:                  s.Longitude,
		GeofenceRadius:             s.GeofenceRadius,
		EnableLocationVerification: s.EnableLocationVerification,
		OrderNotifications:         s.OrderNotifications,
		AutoAcceptOrders:           s.AutoAcceptOrders,
		RequireCustomerName:        s.RequireCustomerName,
		ShowPrices:                 s.ShowPrices,
		EnableSpecialInstructions:  s.EnableSpecialInstructions,
		BaseURL:                    s.BaseURL,
		UpdatedAt:                  s.UpdatedAt,
	}
}

// defaultSettingsParams mirrors the schema defaults for a first-run restaurant.
func defaultSettingsParams() database.UpsertSettingsParams {
	return database.UpsertSettingsParams{
		RestaurantName:             "My Restaurant",
		Latitude:                   37.7749,
		Longitude:                  -122.4194,
		GeofenceRadius:             500,
		EnableLocationVerification: true,
		OrderNotifications:         true,
		RequireCustomerName:        true,
		ShowPrices:                 true,
		EnableSpecialInstructions:  true,
		BaseURL:                    "https://example.com/menu",
	}
}

// --- Handlers ---

// Get handles GET /settings. A never-configured restaurant gets defaults
// created on first read, matching how the admin settings form expects a
// complete document.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			settings, err = h.store.UpsertSettings(r.Context(), defaultSettingsParams())
			if err != nil {
				log.Printf("ERROR: create default settings: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
		} else {
			log.Printf("ERROR: get settings: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// Save handles POST /settings (full replace of the singleton).
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.RestaurantName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restaurant_name is required"})
		return
	}
	if req.GeofenceRadius < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "geofence_radius must be >= 0"})
		return
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = defaultSettingsParams().BaseURL
	}

	settings, err := h.store.UpsertSettings(r.Context(), database.UpsertSettingsParams{
		RestaurantName:             req.RestaurantName,
		Description:                textFromString(req.Description),
		Address:                    textFromString(req.Address),
		Phone:                      textFromString(req.Phone),
		Email:                      textFromString(req.Email),
		Website:                    textFromString(req.Website),
		Latitude:                   req.Latitude,
		Longitude:                  req.Longitude,
		GeofenceRadius:             req.GeofenceRadius,
		EnableLocationVerification: req.EnableLocationVerification,
		OrderNotifications:         req.OrderNotifications,
		AutoAcceptOrders:           req.AutoAcceptOrders,
		RequireCustomerName:        req.RequireCustomerName,
		ShowPrices:                 req.ShowPrices,
		EnableSpecialInstructions:  req.EnableSpecialInstructions,
		BaseURL:                    baseURL,
	})
	if err != nil {
		log.Printf("ERROR: save settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}
