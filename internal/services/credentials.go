package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/models"
	"github.com/AnshRaj112/shipments-backend/pkg/utils"
)

// CredentialInput is a full credential set for one carrier.
type CredentialInput struct {
	CarrierCode   carriers.Code
	ClientID      string
	ClientSecret  string
	AccountNumber string
	IsActive      bool
	Description   *string
}

// CredentialPatch applies only its non-nil fields.
type CredentialPatch struct {
	ClientID      *string
	ClientSecret  *string
	AccountNumber *string
	IsActive      *bool
	Description   *string
}

// CredentialStore persists per-user carrier credentials. Reads leaving the
// store are masked; the plaintext secret is only handed out as a
// carriers.Credential for a token exchange.
type CredentialStore struct {
	db    bun.IDB
	box   *utils.SecretBox
	cache *Cache
}

func NewCredentialStore(db bun.IDB, box *utils.SecretBox) *CredentialStore {
	return &CredentialStore{db: db, box: box}
}

// WithCache caches each user's active carrier list in c.
func (s *CredentialStore) WithCache(c *Cache) *CredentialStore {
	s.cache = c
	return s
}

func activeCarriersKey(userID int64) string {
	return CacheKey("active_carriers", userID)
}

// Mask hides all but the last four characters of secret. Secrets of four
// characters or fewer are masked entirely.
func Mask(secret string) string {
	r := []rune(secret)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

func (s *CredentialStore) List(ctx context.Context, userID int64) ([]models.CredentialView, error) {
	var rows []models.CarrierCredentials
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list carrier credentials")
	}

	views := make([]models.CredentialView, 0, len(rows))
	for i := range rows {
		v, err := s.view(&rows[i])
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *CredentialStore) Get(ctx context.Context, userID int64, code carriers.Code) (models.CredentialView, error) {
	row, err := s.find(ctx, s.db, userID, code)
	if err != nil {
		return models.CredentialView{}, err
	}
	return s.view(row)
}

// Upsert stores in for (userID, in.CarrierCode), overwriting the existing row
// if there is one. created reports whether a new row was inserted.
func (s *CredentialStore) Upsert(ctx context.Context, userID int64, in CredentialInput) (view models.CredentialView, created bool, err error) {
	if !in.CarrierCode.Valid() {
		return view, false, invalid("unsupported carrier", goerrors.FieldError{Field: "carrier_code", Message: "unsupported carrier", Value: string(in.CarrierCode)})
	}
	sealed, err := s.box.Seal(in.ClientSecret)
	if err != nil {
		return view, false, storeError(err, "failed to seal client secret")
	}

	now := time.Now().UTC()
	row := &models.CarrierCredentials{
		UserID:        userID,
		CarrierCode:   in.CarrierCode,
		ClientID:      in.ClientID,
		ClientSecret:  sealed,
		AccountNumber: in.AccountNumber,
		IsActive:      in.IsActive,
		Description:   in.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		existing, err := s.find(ctx, tx, userID, in.CarrierCode)
		switch {
		case goerrors.IsNotFound(err):
			created = true
		case err != nil:
			return err
		default:
			row.CreatedAt = existing.CreatedAt
		}

		_, err = tx.NewInsert().
			Model(row).
			On("CONFLICT (user_id, carrier_code) DO UPDATE").
			Set("client_id = EXCLUDED.client_id").
			Set("client_secret = EXCLUDED.client_secret").
			Set("account_number = EXCLUDED.account_number").
			Set("is_active = EXCLUDED.is_active").
			Set("description = EXCLUDED.description").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("id").
			Exec(ctx)
		return err
	})
	if err != nil {
		return view, false, storeError(err, "failed to save carrier credentials")
	}

	s.cache.Invalidate(ctx, activeCarriersKey(userID))
	return s.viewPlain(row, in.ClientSecret), created, nil
}

func (s *CredentialStore) Update(ctx context.Context, userID int64, code carriers.Code, patch CredentialPatch) (models.CredentialView, error) {
	var sealed *string
	if patch.ClientSecret != nil {
		v, err := s.box.Seal(*patch.ClientSecret)
		if err != nil {
			return models.CredentialView{}, storeError(err, "failed to seal client secret")
		}
		sealed = &v
	}

	var row *models.CarrierCredentials
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.find(ctx, tx, userID, code)
		if err != nil {
			return err
		}
		columns := []string{"updated_at"}
		if patch.ClientID != nil {
			existing.ClientID = *patch.ClientID
			columns = append(columns, "client_id")
		}
		if sealed != nil {
			existing.ClientSecret = *sealed
			columns = append(columns, "client_secret")
		}
		if patch.AccountNumber != nil {
			existing.AccountNumber = *patch.AccountNumber
			columns = append(columns, "account_number")
		}
		if patch.IsActive != nil {
			existing.IsActive = *patch.IsActive
			columns = append(columns, "is_active")
		}
		if patch.Description != nil {
			existing.Description = patch.Description
			columns = append(columns, "description")
		}
		existing.UpdatedAt = time.Now().UTC()
		row = existing

		_, err = tx.NewUpdate().Model(existing).Column(columns...).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return models.CredentialView{}, storeError(err, "failed to update carrier credentials")
	}
	s.cache.Invalidate(ctx, activeCarriersKey(userID))
	return s.view(row)
}

// Delete removes the credentials for code. It reports false when the user
// had none.
func (s *CredentialStore) Delete(ctx context.Context, userID int64, code carriers.Code) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*models.CarrierCredentials)(nil)).
		Where("user_id = ?", userID).
		Where("carrier_code = ?", code).
		Exec(ctx)
	if err != nil {
		return false, storeError(err, "failed to delete carrier credentials")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeError(err, "failed to delete carrier credentials")
	}
	if n > 0 {
		s.cache.Invalidate(ctx, activeCarriersKey(userID))
	}
	return n > 0, nil
}

// ActiveCarriers lists the carriers the user has active credentials for.
// Rows whose stored code is no longer supported are skipped.
func (s *CredentialStore) ActiveCarriers(ctx context.Context, userID int64) ([]carriers.Code, error) {
	key := activeCarriersKey(userID)
	var codes []carriers.Code
	if hit, err := s.cache.Get(ctx, key, &codes); err != nil {
		log.Printf("[CACHE] read %s: %v", key, err)
	} else if hit {
		return codes, nil
	}

	rows, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	codes = make([]carriers.Code, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.CarrierCode)
	}
	if err := s.cache.Set(ctx, key, codes); err != nil {
		log.Printf("[CACHE] write %s: %v", key, err)
	}
	return codes, nil
}

// Submission builds a batch token submission from the user's active
// credentials, with secrets in plaintext.
func (s *CredentialStore) Submission(ctx context.Context, userID int64) ([]carriers.Credential, error) {
	rows, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound("no active carrier credentials configured")
	}

	out := make([]carriers.Credential, 0, len(rows))
	for _, row := range rows {
		secret, err := s.box.Open(row.ClientSecret)
		if err != nil {
			return nil, storeError(err, "failed to open client secret")
		}
		out = append(out, carriers.Credential{
			Carrier:       row.CarrierCode,
			ClientID:      row.ClientID,
			ClientSecret:  secret,
			AccountNumber: row.AccountNumber,
		})
	}
	return out, nil
}

func (s *CredentialStore) active(ctx context.Context, userID int64) ([]models.CarrierCredentials, error) {
	var rows []models.CarrierCredentials
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("is_active = ?", true).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list active carriers")
	}

	out := rows[:0]
	for _, row := range rows {
		if row.CarrierCode.Valid() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *CredentialStore) find(ctx context.Context, db bun.IDB, userID int64, code carriers.Code) (*models.CarrierCredentials, error) {
	row := new(models.CarrierCredentials)
	err := db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Where("carrier_code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("carrier credentials not found for " + string(code))
	}
	if err != nil {
		return nil, storeError(err, "failed to load carrier credentials")
	}
	return row, nil
}

func (s *CredentialStore) view(row *models.CarrierCredentials) (models.CredentialView, error) {
	secret, err := s.box.Open(row.ClientSecret)
	if err != nil {
		return models.CredentialView{}, storeError(err, "failed to open client secret")
	}
	return s.viewPlain(row, secret), nil
}

func (s *CredentialStore) viewPlain(row *models.CarrierCredentials, secret string) models.CredentialView {
	return models.CredentialView{
		ID:                 row.ID,
		UserID:             row.UserID,
		CarrierCode:        row.CarrierCode,
		ClientID:           row.ClientID,
		ClientSecretMasked: Mask(secret),
		AccountNumber:      row.AccountNumber,
		IsActive:           row.IsActive,
		Description:        row.Description,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}
