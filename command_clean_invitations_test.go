package membership_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	membership "github.com/vinculo/go-membership"
)

func TestCleanInvitationsHandler_Execute(t *testing.T) {
	repo, db := setupRepo(t)
	handler := membership.NewCleanInvitationsHandler(repo).WithLogger(quietLogger{})

	ctx := context.Background()
	now := time.Now()

	seed := []*membership.Invitation{
		{
			Name: "Stale Pending", Email: "stale@example.com",
			RoleType: membership.RoleAdmin,
			Status:   membership.InvitationPending,
			SentAt:   timePtr(now.Add(-61 * time.Minute)),
		},
		{
			Name: "Fresh Pending", Email: "fresh@example.com",
			RoleType: membership.RoleAdmin,
			Status:   membership.InvitationPending,
			SentAt:   timePtr(now.Add(-30 * time.Minute)),
		},
		{
			Name: "Old But Accepted", Email: "accepted@example.com",
			RoleType: membership.RoleAdmin,
			Status:   membership.InvitationAccepted,
			SentAt:   timePtr(now.Add(-2 * time.Hour)),
		},
	}
	for _, inv := range seed {
		_, err := db.NewInsert().Model(inv).Exec(ctx)
		require.NoError(t, err)
	}

	deleted, err := handler.Execute(ctx, membership.CleanInvitationsMessage{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Only the stale pending row went away.
	remaining := []*membership.Invitation{}
	require.NoError(t, db.NewSelect().Model(&remaining).Order("email ASC").Scan(ctx))
	require.Len(t, remaining, 2)
	assert.Equal(t, "accepted@example.com", remaining[0].Email)
	assert.Equal(t, "fresh@example.com", remaining[1].Email)

	// A second sweep finds nothing left to delete.
	deleted, err = handler.Execute(ctx, membership.CleanInvitationsMessage{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestInvitations_MarkAccepted(t *testing.T) {
	repo, _ := setupRepo(t)

	ctx := context.Background()
	record, err := repo.Invitations().Create(ctx, &membership.Invitation{
		Name:     "Invitee",
		Email:    "invitee@example.com",
		RoleType: membership.RoleMember,
		NodeID:   3,
		Token:    "opaque-token",
	})
	require.NoError(t, err)
	assert.Equal(t, membership.InvitationPending, record.Status)
	require.NotNil(t, record.SentAt)

	require.NoError(t, repo.Invitations().MarkAccepted(ctx, record.ID))

	found, err := repo.Invitations().GetByEmail(ctx, "invitee@example.com")
	require.NoError(t, err)
	assert.Equal(t, membership.InvitationAccepted, found.Status)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
