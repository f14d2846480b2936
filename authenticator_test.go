package membership_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	membership "github.com/vinculo/go-membership"
)

var testClient = membership.ClientInfo{
	IP:        "203.0.113.7",
	UserAgent: "membership-test/1.0",
}

func TestAuther_Login(t *testing.T) {
	repo, _ := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	registerTestUser(t, repo, "ada@example.com", "secretpass", membership.RoleAdmin)

	result, err := auther.Login(context.Background(), "ada@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, membership.RoleAdmin, result.Role)
	assert.Empty(t, result.NodeCode)

	identity, err := auther.IdentityFromToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", identity.Email())
	assert.Equal(t, membership.RoleAdmin, identity.Role())

	session, err := repo.Sessions().GetByToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, testClient.IP, session.IPAddress)
	assert.Equal(t, testClient.UserAgent, session.UserAgent)
}

func TestAuther_Login_CredentialFailures(t *testing.T) {
	repo, _ := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	registerTestUser(t, repo, "ada@example.com", "secretpass", membership.RoleAdmin)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ada@example.com", encodePassword("not the password")},
		{"unknown email", "nobody@example.com", encodePassword("secretpass")},
		{"password not base64", "ada@example.com", "!!! definitely not base64 !!!"},
		{"empty password", "ada@example.com", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := auther.Login(context.Background(), tc.email, tc.password, testClient)
			assert.Nil(t, result)
			// Every failure mode collapses into the same error.
			assert.ErrorIs(t, err, membership.ErrInvalidCredentials)
		})
	}
}

func TestAuther_Login_RehashesLegacyHash(t *testing.T) {
	repo, db := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	ctx := context.Background()
	user := registerTestUser(t, repo, "legacy@example.com", "secretpass", membership.RoleAdmin)

	// Simulate a hash imported from the previous backend.
	legacy := legacyBcryptHash(t, "secretpass")
	_, err := db.NewUpdate().
		Model((*membership.User)(nil)).
		Set("password_hash = ?", legacy).
		Where("id = ?", user.ID).
		Exec(ctx)
	require.NoError(t, err)

	_, err = auther.Login(ctx, "legacy@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)

	updated, err := repo.Users().GetByEmail(ctx, "legacy@example.com")
	require.NoError(t, err)
	assert.False(t, membership.IsLegacyHash(updated.PasswordHash))
	assert.True(t, strings.HasPrefix(updated.PasswordHash, "$2a$"))

	// The original password keeps working against the migrated hash.
	_, err = auther.Login(ctx, "legacy@example.com", encodePassword("secretpass"), testClient)
	assert.NoError(t, err)
}

func TestAuther_Login_MemberNodeCode(t *testing.T) {
	repo, db := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	ctx := context.Background()
	user := registerTestUser(t, repo, "member@example.com", "secretpass", membership.RoleMember)

	node := &membership.Node{Code: "NODE-001", Name: "Research Node", NodeType: "research"}
	_, err := db.NewInsert().Model(node).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewInsert().Model(&membership.Member{UserID: user.ID, NodeID: node.ID}).Exec(ctx)
	require.NoError(t, err)

	result, err := auther.Login(ctx, "member@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)
	assert.Equal(t, "NODE-001", result.NodeCode)
}

func TestAuther_Login_LeaderNodeCode(t *testing.T) {
	repo, db := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	ctx := context.Background()
	user := registerTestUser(t, repo, "leader@example.com", "secretpass", membership.RoleNodeLeader)

	node := &membership.Node{Code: "NODE-002", Name: "Led Node", NodeType: "chapter", LeaderID: user.ID}
	_, err := db.NewInsert().Model(node).Exec(ctx)
	require.NoError(t, err)

	result, err := auther.Login(ctx, "leader@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)
	assert.Equal(t, "NODE-002", result.NodeCode)
}

func TestAuther_Login_SessionWriteFailureStillSucceeds(t *testing.T) {
	repo, _ := setupRepo(t)
	registerTestUser(t, repo, "ada@example.com", "secretpass", membership.RoleAdmin)

	broken := repoWithBrokenSessions{RepositoryManager: repo}
	auther := membership.NewAuthenticator(broken, testConfig()).WithLogger(quietLogger{})

	result, err := auther.Login(context.Background(), "ada@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestAuther_Logout(t *testing.T) {
	repo, _ := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	ctx := context.Background()
	user := registerTestUser(t, repo, "ada@example.com", "secretpass", membership.RoleAdmin)

	result, err := auther.Login(ctx, "ada@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)

	require.NoError(t, auther.Logout(ctx, result.Token))

	count, err := repo.Sessions().CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Logging out an already evicted token is not an error.
	assert.NoError(t, auther.Logout(ctx, result.Token))

	assert.ErrorIs(t, auther.Logout(ctx, ""), membership.ErrMissingToken)
}

func TestAuther_LogoutAll(t *testing.T) {
	repo, _ := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	ctx := context.Background()
	user := registerTestUser(t, repo, "ada@example.com", "secretpass", membership.RoleAdmin)

	_, err := auther.Login(ctx, "ada@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)
	_, err = auther.Login(ctx, "ada@example.com", encodePassword("secretpass"), membership.ClientInfo{
		IP:        "198.51.100.4",
		UserAgent: "another-device/2.0",
	})
	require.NoError(t, err)

	count, err := repo.Sessions().CountByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, auther.LogoutAll(ctx, user.ID))

	count, err = repo.Sessions().CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAuther_Refresh(t *testing.T) {
	repo, _ := setupRepo(t)
	auther := membership.NewAuthenticator(repo, testConfig()).WithLogger(quietLogger{})

	ctx := context.Background()
	registerTestUser(t, repo, "ada@example.com", "secretpass", membership.RoleAdmin)

	result, err := auther.Login(ctx, "ada@example.com", encodePassword("secretpass"), testClient)
	require.NoError(t, err)

	identity, err := auther.IdentityFromToken(ctx, result.Token)
	require.NoError(t, err)

	token, err := auther.Refresh(ctx, identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	refreshed, err := auther.IdentityFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), refreshed.ID())
	assert.Equal(t, identity.Email(), refreshed.Email())
	assert.Equal(t, identity.Role(), refreshed.Role())

	_, err = auther.Refresh(ctx, nil)
	assert.ErrorIs(t, err, membership.ErrRefreshFailed)
}

type repoWithBrokenSessions struct {
	membership.RepositoryManager
}

func (r repoWithBrokenSessions) Sessions() membership.Sessions {
	return brokenSessions{Sessions: r.RepositoryManager.Sessions()}
}

type brokenSessions struct {
	membership.Sessions
}

func (brokenSessions) Upsert(ctx context.Context, userID uuid.UUID, token string, client membership.ClientInfo) error {
	return errors.New("session store unavailable")
}
