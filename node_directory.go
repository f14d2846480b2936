package membership

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type nodeDirectory struct {
	db *bun.DB
}

var _ NodeDirectory = (*nodeDirectory)(nil)

// NewNodeDirectory wires the organizational lookups over bun
func NewNodeDirectory(db *bun.DB) NodeDirectory {
	return &nodeDirectory{db: db}
}

// NodeCodeByLeader returns the code of the node the user leads, or ""
// when the user leads none.
func (d *nodeDirectory) NodeCodeByLeader(ctx context.Context, leaderID uuid.UUID) (string, error) {
	var code string
	err := d.db.NewSelect().
		Model((*Node)(nil)).
		Column("code").
		Where("leader_id = ?", leaderID).
		Limit(1).
		Scan(ctx, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

// NodeIDByMember returns the node id of the user's membership, or 0 when
// the user has no membership row.
func (d *nodeDirectory) NodeIDByMember(ctx context.Context, userID uuid.UUID) (int64, error) {
	var nodeID int64
	err := d.db.NewSelect().
		Model((*Member)(nil)).
		Column("node_id").
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx, &nodeID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return nodeID, nil
}

func (d *nodeDirectory) NodeCodeByID(ctx context.Context, nodeID int64) (string, error) {
	var code string
	err := d.db.NewSelect().
		Model((*Node)(nil)).
		Column("code").
		Where("id = ?", nodeID).
		Limit(1).
		Scan(ctx, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}
