package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const settingsColumns = `id, restaurant_name, description, address, phone, email, website,
	latitude, longitude, geofence_radius, enable_location_verification,
	order_notifications, auto_accept_orders, require_customer_name,
	show_prices, enable_special_instructions, base_url, updated_at`

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	err := row.Scan(
		&s.ID, &s.RestaurantName, &s.Description, &s.Address, &s.Phone,
		&s.Email, &s.Website, &s.Latitude, &s.Longitude, &s.GeofenceRadius,
		&s.EnableLocationVerification, &s.OrderNotifications,
		&s.AutoAcceptOrders, &s.RequireCustomerName, &s.ShowPrices,
		&s.EnableSpecialInstructions, &s.BaseURL, &s.UpdatedAt,
	)
	return s, err
}

// GetSettings returns the singleton settings row.
// Returns pgx.ErrNoRows when the restaurant has never been configured.
func (q *Queries) GetSettings(ctx context.Context) (Settings, error) {
	row := q.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings LIMIT 1`)
	return scanSettings(row)
}

type UpsertSettingsParams struct {
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
}

// UpsertSettings writes the singleton settings row. A fixed key column keeps
// exactly one row regardless of how many writers race.
func (q *Queries) UpsertSettings(ctx context.Context, arg UpsertSettingsParams) (Settings, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO settings (singleton, restaurant_name, description, address, phone,
			email, website, latitude, longitude, geofence_radius,
			enable_location_verification, order_notifications, auto_accept_orders,
			require_customer_name, show_prices, enable_special_instructions, base_url)
		VALUES (true, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (singleton) DO UPDATE SET
			restaurant_name = EXCLUDED.restaurant_name,
			description = EXCLUDED.description,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			website = EXCLUDED.website,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			geofence_radius = EXCLUDED.geofence_radius,
			enable_location_verification = EXCLUDED.enable_location_verification,
			order_notifications = EXCLUDED.order_notifications,
			auto_accept_orders = EXCLUDED.auto_accept_orders,
			require_customer_name = EXCLUDED.require_customer_name,
			show_prices = EXCLUDED.show_prices,
			enable_special_instructions = EXCLUDED.enable_special_instructions,
			base_url = EXCLUDED.base_url,
			updated_at = now()
		RETURNING `+settingsColumns,
		arg.RestaurantName, arg.Description, arg.Address, arg.Phone, arg.Email,
		arg.Website, arg.Latitude, arg.Longitude, arg.GeofenceRadius,
		arg.EnableLocationVerification, arg.OrderNotifications,
		arg.AutoAcceptOrders, arg.RequireCustomerName, arg.ShowPrices,
		arg.EnableSpecialInstructions, arg.BaseURL,
	)
	return scanSettings(row)
}
