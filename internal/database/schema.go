package database

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates all tables if they do not exist yet.
func ApplySchema(ctx context.Context, db DBTX) error {
	_, err := db.Exec(ctx, schemaSQL)
	return err
}
