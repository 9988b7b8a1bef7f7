package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const categoryColumns = `id, name, description, sort_order, created_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.CreatedAt)
	return c, err
}

type CreateCategoryParams struct {
	Name        string
	Description pgtype.Text
	SortOrder   int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO categories (name, description, sort_order)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		arg.Name, arg.Description, arg.SortOrder,
	)
	return scanCategory(row)
}

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	row := q.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type UpdateCategoryParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	SortOrder   int32
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, description = $3, sort_order = $4
		WHERE id = $1
		RETURNING `+categoryColumns,
		arg.ID, arg.Name, arg.Description, arg.SortOrder,
	)
	return scanCategory(row)
}

func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
