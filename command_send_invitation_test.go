package membership_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	membership "github.com/vinculo/go-membership"
)

func TestSendInvitationHandler_Execute(t *testing.T) {
	repo, _ := setupRepo(t)
	ts := membership.NewTokenService(testConfig(), nil)

	sender := &scriptedSender{}
	dispatcher := membership.NewDispatcher(sender,
		membership.WithDispatchLogger(quietLogger{}),
		membership.WithRetryBackoff(time.Millisecond),
	)

	handler := membership.NewSendInvitationHandler(repo, ts, dispatcher).WithLogger(quietLogger{})

	ctx := context.Background()
	record, err := handler.Execute(ctx, membership.SendInvitationMessage{
		Invite: membership.Invite{
			Name:  "New Member",
			Email: "member@example.com",
			Role:  membership.MemberInvite{NodeID: 7},
		},
		AcceptURL:  "https://example.com/accept",
		InviterTag: "leader@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, membership.InvitationPending, record.Status)
	assert.Equal(t, membership.RoleMember, record.RoleType)
	assert.Equal(t, int64(7), record.NodeID)
	assert.Empty(t, record.NodeType)
	require.NotNil(t, record.SentAt)

	// The stored token decodes back into the same invite.
	claims, err := ts.ValidateInvitation(record.Token)
	require.NoError(t, err)
	assert.Equal(t, "member@example.com", claims.Email)
	role, err := claims.Role()
	require.NoError(t, err)
	assert.Equal(t, membership.MemberInvite{NodeID: 7}, role)

	dispatcher.Close()

	_, sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "member@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "leader@example.com")
	assert.Contains(t, sent[0].Body, record.Token)
	assert.True(t, strings.Contains(sent[0].Body, "https://example.com/accept"))

	// The record is retrievable by invitee email.
	found, err := repo.Invitations().GetByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
}

func TestSendInvitationHandler_NodeLeaderInvite(t *testing.T) {
	repo, _ := setupRepo(t)
	ts := membership.NewTokenService(testConfig(), nil)

	sender := &scriptedSender{}
	dispatcher := membership.NewDispatcher(sender,
		membership.WithDispatchLogger(quietLogger{}),
		membership.WithRetryBackoff(time.Millisecond),
	)
	defer dispatcher.Close()

	handler := membership.NewSendInvitationHandler(repo, ts, dispatcher).WithLogger(quietLogger{})

	record, err := handler.Execute(context.Background(), membership.SendInvitationMessage{
		Invite: membership.Invite{
			Name:  "New Leader",
			Email: "leader@example.com",
			Role:  membership.NodeLeaderInvite{NodeType: "research"},
		},
		AcceptURL: "https://example.com/accept",
	})
	require.NoError(t, err)

	assert.Equal(t, membership.RoleNodeLeader, record.RoleType)
	assert.Equal(t, "research", record.NodeType)
	assert.Zero(t, record.NodeID)
}

func TestSendInvitationHandler_InvalidInvite(t *testing.T) {
	repo, _ := setupRepo(t)
	ts := membership.NewTokenService(testConfig(), nil)

	sender := &scriptedSender{}
	dispatcher := membership.NewDispatcher(sender, membership.WithDispatchLogger(quietLogger{}))
	defer dispatcher.Close()

	handler := membership.NewSendInvitationHandler(repo, ts, dispatcher).WithLogger(quietLogger{})

	_, err := handler.Execute(context.Background(), membership.SendInvitationMessage{
		Invite: membership.Invite{Name: "No Role", Email: "x@example.com"},
	})
	require.Error(t, err)

	_, sent := sender.snapshot()
	assert.Empty(t, sent)
}
