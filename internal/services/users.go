package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/models"
	"github.com/AnshRaj112/shipments-backend/pkg/utils"
)

const MinPasswordLength = 8

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName *string
}

type UserService struct {
	db bun.IDB
}

func NewUserService(db bun.IDB) *UserService {
	return &UserService{db: db}
}

// Register creates an active user with an Argon2id password hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var fields []goerrors.FieldError
	if err := utils.ValidateUsername(in.Username); err != nil {
		var ve *utils.ValidationError
		if errors.As(err, &ve) {
			fields = append(fields, goerrors.FieldError{Field: ve.Field, Message: ve.Message})
		}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, goerrors.FieldError{Field: "email", Message: "a valid email is required"})
	}
	if len(in.Password) < MinPasswordLength {
		fields = append(fields, goerrors.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if len(fields) > 0 {
		return nil, invalid("invalid registration", fields...)
	}

	username := utils.NormalizeUsername(in.Username)
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ?", username).
		WhereOr("email = ?", email).
		Exists(ctx)
	if err != nil {
		return nil, storeError(err, "failed to check existing users")
	}
	if exists {
		return nil, conflict("username or email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, storeError(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     in.FullName,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("username or email already registered")
		}
		return nil, storeError(err, "failed to create user")
	}
	return user, nil
}

// Authenticate returns the active user matching username and password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user := new(models.User)
	err := s.db.NewSelect().
		Model(user).
		Where("username = ?", utils.NormalizeUsername(username)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invalidLogin()
	}
	if err != nil {
		return nil, storeError(err, "failed to load user")
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		return nil, invalidLogin()
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	user := new(models.User)
	err := s.db.NewSelect().Model(user).Where("id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, storeError(err, "failed to load user")
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < MinPasswordLength {
		return invalid("invalid password", goerrors.FieldError{Field: "new_password", Message: "password must be at least 8 characters"})
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := utils.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return goerrors.New("current password is incorrect", goerrors.CategoryAuth).WithTextCode(TextCodeInvalidLogin)
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return storeError(err, "failed to hash password")
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	_, err = s.db.NewUpdate().Model(user).Column("password_hash", "updated_at").WherePK().Exec(ctx)
	return storeError(err, "failed to update password")
}

// Delete removes the user; locations, credentials and shipments cascade.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	res, err := s.db.NewDelete().Model((*models.User)(nil)).Where("id = ?", userID).Exec(ctx)
	if err != nil {
		return storeError(err, "failed to delete user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("user not found")
	}
	return nil
}

func invalidLogin() error {
	return goerrors.New("invalid username or password", goerrors.CategoryAuth).WithTextCode(TextCodeInvalidLogin)
}
