package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/database"
	"github.com/AnshRaj112/shipments-backend/internal/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	url := fmt.Sprintf("sqlite://file:services-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := database.Connect(context.Background(), url, false)
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.InitTables(context.Background(), db); err != nil {
		t.Fatalf("init tables: %v", err)
	}
	return db
}

func insertUser(t *testing.T, db bun.IDB, username string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := db.NewInsert().Model(u).Exec(context.Background()); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
