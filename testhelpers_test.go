package membership_test

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	membership "github.com/vinculo/go-membership"
)

func testConfig() membership.AppConfig {
	return membership.AppConfig{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		TokenTTL:   3600,
	}
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, membership.CreateSchema(ctx, db))
	require.NoError(t, membership.SeedRoles(ctx, db))

	return db
}

func setupRepo(t *testing.T) (membership.RepositoryManager, *bun.DB) {
	t.Helper()
	db := setupDB(t)
	repo := membership.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())
	return repo, db
}

func encodePassword(plaintext string) string {
	return base64.StdEncoding.EncodeToString([]byte(plaintext))
}

func registerTestUser(t *testing.T, repo membership.RepositoryManager, email, password, role string) *membership.User {
	t.Helper()

	handler := membership.NewRegisterUserHandler(repo)
	user, err := handler.Execute(context.Background(), membership.RegisterUserMessage{
		Name:     "Test User",
		Email:    email,
		Password: encodePassword(password),
		Role:     role,
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	return user
}

type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Warn(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}
