package handler

import (
	"context"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/database"
)

// StatisticsStore defines the database methods needed by the statistics
// handler. Satisfied by *database.Queries.
type StatisticsStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	ListOrderItemTotals(ctx context.Context) ([]database.OrderItemTotalsRow, error)
}

// StatisticsHandler aggregates menu item popularity for the admin dashboard.
type StatisticsHandler struct {
	store StatisticsStore
}

// NewStatisticsHandler creates a new StatisticsHandler.
func NewStatisticsHandler(store StatisticsStore) *StatisticsHandler {
	return &StatisticsHandler{store: store}
}

// RegisterRoutes registers the statistics endpoint on the given Chi router.
func (h *StatisticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

type itemStatistics struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	CategoryID         uuid.UUID `json:"category_id"`
	CategoryName       string    `json:"category_name"`
	OrderCount         int64     `json:"order_count"`
	TotalQuantity      int64     `json:"total_quantity"`
	Percentage         float64   `json:"percentage"`
	CategoryPercentage float64   `json:"category_percentage"`
}

type categoryStatistics struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	OrderCount    int64     `json:"order_count"`
	TotalQuantity int64     `json:"total_quantity"`
	Percentage    float64   `json:"percentage"`
}

type statisticsResponse struct {
	Items             []itemStatistics     `json:"items"`
	Categories        []categoryStatistics `json:"categories"`
	TotalOrderedItems int64                `json:"total_ordered_items"`
}

// Get handles GET /statistics. Percentages are by quantity: an item's share
// of everything ordered, and its share within its own category.
func (h *StatisticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.store.ListCategories(ctx)
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	menuItems, err := h.store.ListMenuItems(ctx, database.ListMenuItemsParams{})
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	totals, err := h.store.ListOrderItemTotals(ctx)
	if err != nil {
		log.Printf("ERROR: list order item totals: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	totalsByItem := make(map[uuid.UUID]database.OrderItemTotalsRow, len(totals))
	var grandTotal int64
	for _, t := range totals {
		totalsByItem[t.MenuItemID] = t
		grandTotal += t.TotalQuantity
	}

	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	items := make([]itemStatistics, 0, len(menuItems))
	catTotals := make(map[uuid.UUID]*categoryStatistics, len(categories))
	for _, m := range menuItems {
		t := totalsByItem[m.ID]
		items = append(items, itemStatistics{
			ID:            m.ID,
			Name:          m.Name,
			CategoryID:    m.CategoryID,
			CategoryName:  categoryNames[m.CategoryID],
			OrderCount:    t.OrderCount,
			TotalQuantity: t.TotalQuantity,
		})

		cs, ok := catTotals[m.CategoryID]
		if !ok {
			cs = &categoryStatistics{ID: m.CategoryID, Name: categoryNames[m.CategoryID]}
			catTotals[m.CategoryID] = cs
		}
		cs.OrderCount += t.OrderCount
		cs.TotalQuantity += t.TotalQuantity
	}

	for i := range items {
		if grandTotal > 0 {
			items[i].Percentage = float64(items[i].TotalQuantity) / float64(grandTotal) * 100
		}
		if cs, ok := catTotals[items[i].CategoryID]; ok && cs.TotalQuantity > 0 {
			items[i].CategoryPercentage = float64(items[i].TotalQuantity) / float64(cs.TotalQuantity) * 100
		}
	}

	// Most ordered first, ties broken by name for stable output.
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalQuantity != items[j].TotalQuantity {
			return items[i].TotalQuantity > items[j].TotalQuantity
		}
		return items[i].Name < items[j].Name
	})

	cats := make([]categoryStatistics, 0, len(catTotals))
	for _, cs := range catTotals {
		if grandTotal > 0 {
			cs.Percentage = float64(cs.TotalQuantity) / float64(grandTotal) * 100
		}
		cats = append(cats, *cs)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].TotalQuantity != cats[j].TotalQuantity {
			return cats[i].TotalQuantity > cats[j].TotalQuantity
		}
		return cats[i].Name < cats[j].Name
	})

	writeJSON(w, http.StatusOK, statisticsResponse{
		Items:             items,
		Categories:        cats,
		TotalOrderedItems: grandTotal,
	})
}
