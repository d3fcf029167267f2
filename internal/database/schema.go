package database

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/models"
)

// InitTables creates all necessary tables and indexes if they don't exist.
func InitTables(ctx context.Context, db bun.IDB) error {
	tables := []*bun.CreateTableQuery{
		db.NewCreateTable().Model((*models.User)(nil)).IfNotExists(),

		db.NewCreateTable().Model((*models.OriginLocation)(nil)).IfNotExists().
			ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`),

		db.NewCreateTable().Model((*models.CarrierCredentials)(nil)).IfNotExists().
			ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`),

		db.NewCreateTable().Model((*models.UserShipment)(nil)).IfNotExists().
			ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
			// No cascade: a location with shipments cannot be deleted.
			ForeignKey(`("origin_location_id") REFERENCES "origin_locations" ("id")`),
	}
	for _, q := range tables {
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}

	indexes := []*bun.CreateIndexQuery{
		db.NewCreateIndex().Model((*models.OriginLocation)(nil)).Index("idx_origin_locations_user_id").Column("user_id").IfNotExists(),
		// At most one default location per user, whatever the interleaving of writers.
		db.NewCreateIndex().Model((*models.OriginLocation)(nil)).Index("idx_origin_locations_one_default").Unique().Column("user_id").Where("is_default = ?", true).IfNotExists(),
		db.NewCreateIndex().Model((*models.CarrierCredentials)(nil)).Index("idx_carrier_credentials_user_id").Column("user_id").IfNotExists(),
		db.NewCreateIndex().Model((*models.UserShipment)(nil)).Index("idx_user_shipments_user_id").Column("user_id").IfNotExists(),
		db.NewCreateIndex().Model((*models.UserShipment)(nil)).Index("idx_user_shipments_created_at").Column("created_at").IfNotExists(),
	}
	for _, q := range indexes {
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}

	log.Println("✅ Database tables initialized")
	return nil
}
