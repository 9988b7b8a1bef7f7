package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
)

// MenuStore defines the database methods needed by menu item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
	GetCategory(ctx context.Context, id uuid.UUID) (database.Category, error)
	ListCategories(ctx context.Context) ([]database.Category, error)
}

// MenuHandler handles menu item endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CategoryID  string `json:"category_id"`
	Image       string `json:"image"`
	Available   *bool  `json:"available"`
}

// categoryRef resolves the category reference at the API boundary: the id is
// always present, Resolved is filled only when the category row was found.
type categoryRef struct {
	ID       uuid.UUID         `json:"id"`
	Resolved *categoryResponse `json:"resolved,omitempty"`
}

type menuItemResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       string      `json:"price"`
	Category    categoryRef `json:"category"`
	Image       *string     `json:"image"`
	Available   bool        `json:"available"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem, category *database.Category) menuItemResponse {
	resp := menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       numericToString(m.Price),
		Category:    categoryRef{ID: m.CategoryID},
		Image:       textPtr(m.Image),
		Available:   m.Available,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if category != nil {
		c := toCategoryResponse(*category)
		resp.Category.Resolved = &c
	}
	return resp
}

// --- Handlers ---

// List handles GET /menu-items?category_id=...
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListMenuItemsParams{}
	if s := r.URL.Query().Get("category_id"); s != "" {
		cid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		params.CategoryID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	items, err := h.store.ListMenuItems(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Resolve category references in one pass.
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	byID := make(map[uuid.UUID]database.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		var cat *database.Category
		if c, ok := byID[m.CategoryID]; ok {
			cat = &c
		}
		resp[i] = toMenuItemResponse(m, cat)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /menu-items.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := h.menuItemParams(r.Context(), req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithItem(w, r, http.StatusCreated, item)
}

// Get handles GET /menu-items/{id}.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithItem(w, r, http.StatusOK, item)
}

// Update handles PUT /menu-items/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := h.menuItemParams(r.Context(), req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          itemID,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		CategoryID:  params.CategoryID,
		Image:       params.Image,
		Available:   params.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithItem(w, r, http.StatusOK, item)
}

// Delete handles DELETE /menu-items/{id}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if err := h.store.DeleteMenuItem(r.Context(), itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "menu item deleted"})
}

// --- Helpers ---

// menuItemParams validates a request body into insert params.
// Returns a non-empty message on validation failure.
func (h *MenuHandler) menuItemParams(ctx context.Context, req menuItemRequest) (database.CreateMenuItemParams, string) {
	if req.Name == "" {
		return database.CreateMenuItemParams{}, "name is required"
	}
	if req.Description == "" {
		return database.CreateMenuItemParams{}, "description is required"
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return database.CreateMenuItemParams{}, "invalid price"
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return database.CreateMenuItemParams{}, "invalid category_id"
	}
	if _, err := h.store.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CreateMenuItemParams{}, "category not found"
		}
		return database.CreateMenuItemParams{}, "invalid category_id"
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	var n pgtype.Numeric
	_ = n.Scan(price.StringFixed(2))

	return database.CreateMenuItemParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       n,
		CategoryID:  categoryID,
		Image:       textFromString(req.Image),
		Available:   available,
	}, ""
}

func (h *MenuHandler) respondWithItem(w http.ResponseWriter, r *http.Request, status int, item database.MenuItem) {
	var cat *database.Category
	if c, err := h.store.GetCategory(r.Context(), item.CategoryID); err == nil {
		cat = &c
	}
	writeJSON(w, status, toMenuItemResponse(item, cat))
}
