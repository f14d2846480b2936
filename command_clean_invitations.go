package membership

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// CleanInvitationsMessage triggers one sweep of expired pending invitations.
type CleanInvitationsMessage struct{}

func (e CleanInvitationsMessage) Type() string { return "invitation.clean" }

// CleanInvitationsHandler deletes invitations that sat pending past the TTL.
// The sweep is idempotent and safe to run concurrently with itself.
type CleanInvitationsHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewCleanInvitationsHandler(repo RepositoryManager) *CleanInvitationsHandler {
	return &CleanInvitationsHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *CleanInvitationsHandler) WithLogger(logger Logger) *CleanInvitationsHandler {
	h.logger = logger
	return h
}

// Execute runs one sweep and reports the number of rows deleted.
func (h *CleanInvitationsHandler) Execute(ctx context.Context, _ CleanInvitationsMessage) (int64, error) {
	deleted, err := h.repo.Invitations().DeleteExpiredPending(ctx, PendingInvitationTTL)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clean expired invitations")
	}

	h.logger.Info("cleaned expired invitations", "deleted", deleted)
	return deleted, nil
}
