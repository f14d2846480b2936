package membership

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SendInvitationMessage asks for an invitation token to be minted, recorded,
// and mailed to the invitee.
type SendInvitationMessage struct {
	Invite     Invite
	AcceptURL  string
	InviterTag string
}

func (e SendInvitationMessage) Type() string { return "invitation.send" }

// SendInvitationHandler mints the invitation token, stores the pending
// invitation record, and queues the mail.
type SendInvitationHandler struct {
	repo         RepositoryManager
	tokenService TokenService
	dispatcher   *Dispatcher
	logger       Logger
}

func NewSendInvitationHandler(repo RepositoryManager, ts TokenService, dispatcher *Dispatcher) *SendInvitationHandler {
	return &SendInvitationHandler{
		repo:         repo,
		tokenService: ts,
		dispatcher:   dispatcher,
		logger:       defLogger{},
	}
}

func (h *SendInvitationHandler) WithLogger(logger Logger) *SendInvitationHandler {
	h.logger = logger
	return h
}

// Execute returns the stored invitation record. The mail leaves through the
// dispatcher queue, so transport failures retry without blocking the caller.
func (h *SendInvitationHandler) Execute(ctx context.Context, event SendInvitationMessage) (*Invitation, error) {
	if err := event.Invite.Validate(); err != nil {
		return nil, err
	}

	token, err := h.tokenService.SignInvitation(event.Invite)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign invitation token")
	}

	record := &Invitation{
		Name:     event.Invite.Name,
		Email:    event.Invite.Email,
		RoleType: event.Invite.Role.RoleType(),
		Token:    token,
		Status:   InvitationPending,
		SentAt:   timePtr(time.Now()),
	}

	switch role := event.Invite.Role.(type) {
	case NodeLeaderInvite:
		record.NodeType = role.NodeType
	case MemberInvite:
		record.NodeID = role.NodeID
	}

	if record, err = h.repo.Invitations().Create(ctx, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store invitation")
	}

	h.dispatcher.Enqueue(Mail{
		To:      event.Invite.Email,
		Subject: invitationSubject(event.InviterTag),
		Body:    invitationBody(event.Invite.Name, event.AcceptURL, token),
	})

	h.logger.Info("invitation queued", "email", event.Invite.Email, "role_type", record.RoleType)

	return record, nil
}

func invitationSubject(inviterTag string) string {
	if inviterTag == "" {
		return "You have been invited to join the network"
	}
	return fmt.Sprintf("%s invited you to join the network", inviterTag)
}

func invitationBody(name, acceptURL, token string) string {
	greeting := "Hello"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s", name)
	}
	return fmt.Sprintf(
		"<p>%s,</p><p>You have been invited to join. Complete your registration here:</p><p><a href=\"%s?token=%s\">Accept invitation</a></p><p>This invitation expires in one hour.</p>",
		greeting, acceptURL, token,
	)
}
