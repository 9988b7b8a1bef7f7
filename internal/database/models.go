package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID                  uuid.UUID
	TableID             uuid.UUID
	TableNumber         int32
	CustomerName        string
	Total               pgtype.Numeric
	Status              string
	PaymentStatus       string
	CheckoutSessionID   pgtype.Text
	SpecialInstructions pgtype.Text
	IsPackage           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID pgtype.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
}

type Table struct {
	ID        uuid.UUID
	Number    int32
	Capacity  int32
	Status    string
	QRCode    pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       pgtype.Numeric
	CategoryID  uuid.UUID
	Image       pgtype.Text
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	SortOrder   int32
	CreatedAt   time.Time
}

// Settings is a singleton row holding restaurant-wide configuration.
type Settings struct {
	ID                         uuid.UUID
	RestaurantName             string
	Description                pgtype.Text
	Address                    pgtype.Text
	Phone                      pgtype.Text
	Email                      pgtype.Text
	Website                    pgtype.Text
	Latitude                   float64
	Longitude                  float64
	GeofenceRadius             float64
	EnableLocationVerification bool
	OrderNotifications         bool
	AutoAcceptOrders           bool
	RequireCustomerName        bool
	ShowPrices                 bool
	EnableSpecialInstructions  bool
	BaseURL                    string
	UpdatedAt                  time.Time
}
