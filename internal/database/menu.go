package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, description, price, category_id, image, available, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.CategoryID,
		&m.Image, &m.Available, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

type CreateMenuItemParams struct {
	Name        string
	Description string
	Price       pgtype.Numeric
	CategoryID  uuid.UUID
	Image       pgtype.Text
	Available   bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (name, description, price, category_id, image, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+menuItemColumns,
		arg.Name, arg.Description, arg.Price, arg.CategoryID, arg.Image, arg.Available,
	)
	return scanMenuItem(row)
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

type ListMenuItemsParams struct {
	// CategoryID filters by category when valid.
	CategoryID pgtype.UUID
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE ($1::uuid IS NULL OR category_id = $1)
		ORDER BY name`,
		arg.CategoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       pgtype.Numeric
	CategoryID  uuid.UUID
	Image       pgtype.Text
	Available   bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET name = $2, description = $3, price = $4, category_id = $5,
			image = $6, available = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.CategoryID, arg.Image, arg.Available,
	)
	return scanMenuItem(row)
}

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
