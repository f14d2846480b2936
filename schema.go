package membership

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// schemaModels lists every table the core owns, in creation order.
var schemaModels = []any{
	(*User)(nil),
	(*Role)(nil),
	(*RoleAssignment)(nil),
	(*Session)(nil),
	(*Node)(nil),
	(*Member)(nil),
	(*Invitation)(nil),
	(*PasswordReset)(nil),
}

// CreateSchema creates all tables if they do not exist. It also seeds the
// closed role enumeration so registration has role entities to grant.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range schemaModels {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SeedRoles inserts a role row per enumeration value, skipping existing ones.
func SeedRoles(ctx context.Context, db *bun.DB) error {
	for _, name := range AllRoles() {
		exists, err := db.NewSelect().
			Model((*Role)(nil)).
			Where("name = ?", name).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		role := &Role{ID: uuid.New(), Name: name}
		if _, err := db.NewInsert().Model(role).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
