package membership

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions tracks live authenticated sessions keyed by client fingerprint.
type Sessions interface {
	SessionTracker

	GetByToken(ctx context.Context, token string) (*Session, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

// Upsert enforces the single-session-per-fingerprint invariant: any prior
// row matching (user, ip, user agent) exactly is deleted before the insert.
// Delete and insert run in one transaction so concurrent logins for the
// same fingerprint cannot leave two rows behind.
func (s *sessions) Upsert(ctx context.Context, userID uuid.UUID, token string, client ClientInfo) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*Session)(nil)).
			Where("user_id = ?", userID).
			Where("ip_address = ?", client.IP).
			Where("user_agent = ?", client.UserAgent).
			Exec(ctx)
		if err != nil {
			return err
		}

		record := &Session{
			UserID:    userID,
			Token:     token,
			IPAddress: client.IP,
			UserAgent: client.UserAgent,
		}
		_, err = tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
}

// DeleteByToken removes the session matching the token verbatim. Deleting
// zero rows is not an error.
func (s *sessions) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByUser removes every session the user owns, across all fingerprints.
func (s *sessions) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sessions) GetByToken(ctx context.Context, token string) (*Session, error) {
	record := &Session{}
	err := s.db.NewSelect().
		Model(record).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *sessions) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.db.NewSelect().
		Model((*Session)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}
