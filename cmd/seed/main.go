// Command seed applies the schema and loads demo data: a handful of tables,
// a small menu, and default settings. Safe to rerun; it skips seeding when
// tables already exist.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/logger"
)

func main() {
	tableCount := flag.Int("tables", 8, "number of tables to create")
	schemaOnly := flag.Bool("schema-only", false, "apply the schema and exit")
	flag.Parse()

	cfg := config.Load()
	log := logger.New("tableside-seed")

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("create connection pool", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.ApplySchema(ctx, pool); err != nil {
		log.Error("apply schema", err)
		os.Exit(1)
	}
	log.Info("schema applied")

	if *schemaOnly {
		return
	}

	queries := database.New(pool)

	existing, err := queries.ListTables(ctx)
	if err != nil {
		log.Error("list tables", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		log.Info("database already seeded", "tables", len(existing))
		return
	}

	for i := 1; i <= *tableCount; i++ {
		_, err := queries.CreateTable(ctx, database.CreateTableParams{
			Number:   int32(i),
			Capacity: 4,
			Status:   enum.TableStatusAvailable,
			QRCode:   pgtype.Text{String: fmt.Sprintf("/menu?table=%d", i), Valid: true},
		})
		if err != nil {
			log.Error("create table", err, "number", i)
			os.Exit(1)
		}
	}
	log.Info("tables created", "count", *tableCount)

	type seedItem struct {
		name        string
		description string
		price       string
	}
	menu := []struct {
		category string
		items    []seedItem
	}{
		{"Appetizers", []seedItem{
			{"Garlic Bread", "Toasted sourdough with garlic butter", "4.50"},
			{"Bruschetta", "Grilled bread, tomato, basil", "6.00"},
		}},
		{"Mains", []seedItem{
			{"Margherita Pizza", "Tomato, mozzarella, basil", "12.00"},
			{"Spaghetti Carbonara", "Guanciale, pecorino, egg", "13.50"},
			{"Grilled Salmon", "With seasonal vegetables", "18.00"},
		}},
		{"Drinks", []seedItem{
			{"Sparkling Water", "750ml bottle", "3.00"},
			{"House Lemonade", "Fresh squeezed", "4.00"},
		}},
	}

	itemCount := 0
	for i, group := range menu {
		category, err := queries.CreateCategory(ctx, database.CreateCategoryParams{
			Name:      group.category,
			SortOrder: int32(i + 1),
		})
		if err != nil {
			log.Error("create category", err, "name", group.category)
			os.Exit(1)
		}

		for _, item := range group.items {
			price, err := decimal.NewFromString(item.price)
			if err != nil {
				log.Error("parse price", err, "item", item.name)
				os.Exit(1)
			}
			var n pgtype.Numeric
			_ = n.Scan(price.StringFixed(2))

			if _, err := queries.CreateMenuItem(ctx, database.CreateMenuItemParams{
				Name:        item.name,
				Description: item.description,
				Price:       n,
				CategoryID:  category.ID,
				Available:   true,
			}); err != nil {
				log.Error("create menu item", err, "item", item.name)
				os.Exit(1)
			}
			itemCount++
		}
	}
	log.Info("menu created", "categories", len(menu), "items", itemCount)

	if _, err := queries.UpsertSettings(ctx, database.UpsertSettingsParams{
		RestaurantName:             "Tableside Demo",
		Latitude:                   37.7749,
		Longitude:                  -122.4194,
		GeofenceRadius:             500,
		EnableLocationVerification: false,
		OrderNotifications:         true,
		RequireCustomerName:        true,
		ShowPrices:                 true,
		EnableSpecialInstructions:  true,
		BaseURL:                    "http://localhost:5173/menu",
	}); err != nil {
		log.Error("seed settings", err)
		os.Exit(1)
	}
	log.Info("settings created")
}
