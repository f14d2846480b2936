package membership

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// PendingInvitationTTL is how long an invitation may sit unaccepted before
// the cleanup sweep deletes it.
const PendingInvitationTTL = time.Hour

// Invitations is the invitation record repository
type Invitations interface {
	Create(ctx context.Context, record *Invitation) (*Invitation, error)
	GetByEmail(ctx context.Context, email string) (*Invitation, error)
	MarkAccepted(ctx context.Context, id int64) error
	DeleteExpiredPending(ctx context.Context, olderThan time.Duration) (int64, error)
}

type invitations struct {
	db *bun.DB
}

var _ Invitations = (*invitations)(nil)

func NewInvitationsRepository(db *bun.DB) Invitations {
	return &invitations{db: db}
}

func (r *invitations) Create(ctx context.Context, record *Invitation) (*Invitation, error) {
	if record.Status == "" {
		record.Status = InvitationPending
	}
	if record.SentAt == nil {
		record.SentAt = timePtr(time.Now())
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *invitations) GetByEmail(ctx context.Context, email string) (*Invitation, error) {
	record := &Invitation{}
	err := r.db.NewSelect().
		Model(record).
		Where("email = ?", email).
		Order("sent_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *invitations) MarkAccepted(ctx context.Context, id int64) error {
	_, err := r.db.NewUpdate().
		Model((*Invitation)(nil)).
		Set("status = ?", InvitationAccepted).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteExpiredPending removes invitations still pending whose sent_at is
// older than the cutoff. Row deletions are idempotent, so concurrent sweeps
// are safe; each row is only counted by the sweep that wins.
func (r *invitations) DeleteExpiredPending(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := r.db.NewDelete().
		Model((*Invitation)(nil)).
		Where("status = ?", InvitationPending).
		Where("sent_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
