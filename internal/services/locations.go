package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/models"
)

type LocationInput struct {
	Name         string
	CompanyName  *string
	AddressLine1 string
	AddressLine2 *string
	City         string
	State        string
	ZipCode      string
	Country      string
	Phone        *string
	IsDefault    bool
}

// LocationPatch applies only its non-nil fields.
type LocationPatch struct {
	Name         *string
	CompanyName  *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	ZipCode      *string
	Country      *string
	Phone        *string
	IsDefault    *bool
}

// LocationManager keeps each user's origin locations with exactly one of
// them marked default whenever the user has any. Every change that touches
// the default flag runs in one transaction holding the user's row lock.
type LocationManager struct {
	db bun.IDB
}

func NewLocationManager(db bun.IDB) *LocationManager {
	return &LocationManager{db: db}
}

func (m *LocationManager) List(ctx context.Context, userID int64) ([]models.OriginLocation, error) {
	var locs []models.OriginLocation
	err := m.db.NewSelect().
		Model(&locs).
		Where("user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list origin locations")
	}
	return locs, nil
}

func (m *LocationManager) Get(ctx context.Context, userID, locationID int64) (*models.OriginLocation, error) {
	return m.find(ctx, m.db, userID, locationID)
}

// Default returns the user's default origin location.
func (m *LocationManager) Default(ctx context.Context, userID int64) (*models.OriginLocation, error) {
	loc := new(models.OriginLocation)
	err := m.db.NewSelect().
		Model(loc).
		Where("user_id = ?", userID).
		Where("is_default = ?", true).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("no default origin location configured")
	}
	if err != nil {
		return nil, storeError(err, "failed to load default origin location")
	}
	return loc, nil
}

// Create adds a location. The user's first location is always the default;
// later ones become default only when asked, which clears the flag on the
// others.
func (m *LocationManager) Create(ctx context.Context, userID int64, in LocationInput) (*models.OriginLocation, error) {
	now := time.Now().UTC()
	loc := &models.OriginLocation{
		UserID:       userID,
		Name:         in.Name,
		CompanyName:  in.CompanyName,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		State:        in.State,
		ZipCode:      in.ZipCode,
		Country:      strings.TrimSpace(in.Country),
		Phone:        in.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if loc.Country == "" {
		loc.Country = models.DefaultCountry
	}

	err := m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		count, err := tx.NewSelect().
			Model((*models.OriginLocation)(nil)).
			Where("user_id = ?", userID).
			Count(ctx)
		if err != nil {
			return err
		}

		loc.IsDefault = in.IsDefault || count == 0
		if loc.IsDefault && count > 0 {
			if err := clearDefault(ctx, tx, userID, 0, now); err != nil {
				return err
			}
		}

		_, err = tx.NewInsert().Model(loc).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, storeError(err, "failed to create origin location")
	}
	return loc, nil
}

// Update applies patch. Setting is_default clears it on the siblings.
// Clearing it on the current default hands the flag to the oldest sibling;
// a user's only location stays default.
func (m *LocationManager) Update(ctx context.Context, userID, locationID int64, patch LocationPatch) (*models.OriginLocation, error) {
	var loc *models.OriginLocation
	err := m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		loc, err = m.find(ctx, tx, userID, locationID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		patch.apply(loc)
		loc.UpdatedAt = now

		if patch.IsDefault != nil {
			switch {
			case *patch.IsDefault:
				if err := clearDefault(ctx, tx, userID, loc.ID, now); err != nil {
					return err
				}
				loc.IsDefault = true
			case loc.IsDefault:
				// The one-default index would reject two defaults, so the
				// flag leaves loc before it moves.
				if err := clearDefault(ctx, tx, userID, 0, now); err != nil {
					return err
				}
				promoted, err := promoteOldest(ctx, tx, userID, loc.ID, now)
				if err != nil {
					return err
				}
				loc.IsDefault = !promoted
			}
		}

		_, err = tx.NewUpdate().Model(loc).WherePK().ExcludeColumn("created_at").Exec(ctx)
		return err
	})
	if err != nil {
		return nil, storeError(err, "failed to update origin location")
	}
	return loc, nil
}

// Delete removes a location. If it was the default, the oldest remaining
// location becomes the default.
func (m *LocationManager) Delete(ctx context.Context, userID, locationID int64) error {
	err := m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		loc, err := m.find(ctx, tx, userID, locationID)
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model(loc).WherePK().Exec(ctx); err != nil {
			return err
		}

		if loc.IsDefault {
			promoted, err := promoteOldest(ctx, tx, userID, loc.ID, time.Now().UTC())
			if err != nil {
				return err
			}
			if promoted {
				log.Printf("[LOCATIONS] default location %d deleted for user %d, promoted another", loc.ID, userID)
			}
		}
		return nil
	})
	if isForeignKeyViolation(err) {
		return conflict("origin location is referenced by existing shipments")
	}
	return storeError(err, "failed to delete origin location")
}

func (m *LocationManager) find(ctx context.Context, db bun.IDB, userID, locationID int64) (*models.OriginLocation, error) {
	loc := new(models.OriginLocation)
	err := db.NewSelect().
		Model(loc).
		Where("id = ?", locationID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("origin location not found")
	}
	if err != nil {
		return nil, storeError(err, "failed to load origin location")
	}
	return loc, nil
}

// clearDefault unsets is_default on every location of the user except keepID.
func clearDefault(ctx context.Context, tx bun.Tx, userID, keepID int64, now time.Time) error {
	q := tx.NewUpdate().
		Model((*models.OriginLocation)(nil)).
		Set("is_default = ?", false).
		Set("updated_at = ?", now).
		Where("user_id = ?", userID).
		Where("is_default = ?", true)
	if keepID != 0 {
		q = q.Where("id != ?", keepID)
	}
	_, err := q.Exec(ctx)
	return err
}

// promoteOldest marks the lowest-id location other than skipID as default.
// It reports false when there is no such location.
func promoteOldest(ctx context.Context, tx bun.Tx, userID, skipID int64, now time.Time) (bool, error) {
	next := new(models.OriginLocation)
	err := tx.NewSelect().
		Model(next).
		Column("id").
		Where("user_id = ?", userID).
		Where("id != ?", skipID).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = tx.NewUpdate().
		Model((*models.OriginLocation)(nil)).
		Set("is_default = ?", true).
		Set("updated_at = ?", now).
		Where("id = ?", next.ID).
		Exec(ctx)
	return err == nil, err
}

func (p LocationPatch) apply(loc *models.OriginLocation) {
	if p.Name != nil {
		loc.Name = *p.Name
	}
	if p.CompanyName != nil {
		loc.CompanyName = p.CompanyName
	}
	if p.AddressLine1 != nil {
		loc.AddressLine1 = *p.AddressLine1
	}
	if p.AddressLine2 != nil {
		loc.AddressLine2 = p.AddressLine2
	}
	if p.City != nil {
		loc.City = *p.City
	}
	if p.State != nil {
		loc.State = *p.State
	}
	if p.ZipCode != nil {
		loc.ZipCode = *p.ZipCode
	}
	if p.Country != nil && strings.TrimSpace(*p.Country) != "" {
		loc.Country = strings.TrimSpace(*p.Country)
	}
	if p.Phone != nil {
		loc.Phone = p.Phone
	}
}
