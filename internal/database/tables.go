package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, number, capacity, status, qr_code, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.QRCode, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type CreateTableParams struct {
	Number   int32
	Capacity int32
	Status   string
	QRCode   pgtype.Text
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tables (number, capacity, status, qr_code)
		VALUES ($1, $2, $3, $4)
		RETURNING `+tableColumns,
		arg.Number, arg.Capacity, arg.Status, arg.QRCode,
	)
	return scanTable(row)
}

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id)
	return scanTable(row)
}

func (q *Queries) GetTableByNumber(ctx context.Context, number int32) (Table, error) {
	row := q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE number = $1`, number)
	return scanTable(row)
}

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, `SELECT `+tableColumns+` FROM tables ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type UpdateTableParams struct {
	ID       uuid.UUID
	Number   int32
	Capacity int32
	Status   string
	QRCode   pgtype.Text
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET number = $2, capacity = $3, status = $4, qr_code = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+tableColumns,
		arg.ID, arg.Number, arg.Capacity, arg.Status, arg.QRCode,
	)
	return scanTable(row)
}

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+tableColumns,
		arg.ID, arg.Status,
	)
	return scanTable(row)
}

func (q *Queries) DeleteTable(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
