package services

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"

	"github.com/AnshRaj112/shipments-backend/internal/models"
)

// AccessClaims is the payload of an end-user access token. Subject is the
// user id and SID the Redis session backing the token.
type AccessClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// AuthService issues HS256 access tokens bound to Redis sessions, so a
// logout or password change revokes tokens before they expire.
type AuthService struct {
	users    *UserService
	sessions *SessionStore
	secret   []byte
	issuer   string
}

func NewAuthService(users *UserService, sessions *SessionStore, secret string) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		issuer:   "shipments-backend",
	}
}

func (a *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := a.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sid, err := a.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session")
	}

	now := time.Now()
	expiresAt := now.Add(a.sessions.TTL())
	claims := AccessClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign access token")
	}

	return &LoginResult{AccessToken: signed, TokenType: "bearer", ExpiresAt: expiresAt, User: user}, nil
}

// Resolve verifies an access token and its session and returns the user id
// and session id it carries.
func (a *AuthService) Resolve(ctx context.Context, token string) (int64, string, error) {
	claims := new(AccessClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(a.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return 0, "", unauthorized("invalid or expired token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", unauthorized("invalid token subject")
	}

	sessionUser, ok, err := a.sessions.Validate(ctx, claims.SID)
	if err != nil {
		return 0, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to validate session")
	}
	if !ok || sessionUser != userID {
		return 0, "", unauthorized("session expired")
	}
	return userID, claims.SID, nil
}

func (a *AuthService) Logout(ctx context.Context, sid string) error {
	return a.sessions.Invalidate(ctx, sid)
}

// ChangePassword updates the password and ends every session of the user.
func (a *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if err := a.users.ChangePassword(ctx, userID, current, next); err != nil {
		return err
	}
	return a.sessions.InvalidateUser(ctx, userID)
}

// DeleteAccount removes the user with everything they own and ends their
// session.
func (a *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := a.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := a.sessions.InvalidateUser(ctx, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to end session")
	}
	return nil
}

func unauthorized(message string) error {
	return goerrors.New(message, goerrors.CategoryAuth).WithTextCode("UNAUTHORIZED")
}
