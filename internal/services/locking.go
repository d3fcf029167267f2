package services

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/AnshRaj112/shipments-backend/internal/models"
)

// lockUser takes a row lock on the user for the rest of tx, serializing
// concurrent writers of that user's locations and credentials. SQLite has no
// row locks; its single connection already serializes transactions.
func lockUser(ctx context.Context, tx bun.Tx, userID int64) error {
	if tx.Dialect().Name() != dialect.PG {
		return nil
	}
	_, err := tx.NewSelect().
		Model((*models.User)(nil)).
		Column("id").
		Where("id = ?", userID).
		For("UPDATE").
		Exec(ctx)
	return err
}
