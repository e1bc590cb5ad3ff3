package access

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GrantStore is the narrow lookup surface the access-control resolver uses.
type GrantStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*PermissionGrant, error)
}

type PermissionGrants interface {
	repository.Repository[*PermissionGrant]
	GrantStore
}

type permissionGrants struct {
	repository.Repository[*PermissionGrant]
	db *bun.DB
}

var (
	_ PermissionGrants                        = (*permissionGrants)(nil)
	_ repository.Repository[*PermissionGrant] = (*permissionGrants)(nil)
)

func NewPermissionGrantsRepository(db *bun.DB) PermissionGrants {
	repo := repository.NewRepository[*PermissionGrant](db, repository.ModelHandlers[*PermissionGrant]{
		NewRecord: func() *PermissionGrant { return &PermissionGrant{} },
		GetID: func(g *PermissionGrant) uuid.UUID {
			if g == nil {
				return uuid.Nil
			}
			return g.UserID
		},
		SetID: func(g *PermissionGrant, id uuid.UUID) {
			if g != nil {
				g.UserID = id
			}
		},
	})

	return &permissionGrants{
		Repository: repo,
		db:         db,
	}
}

func (a *permissionGrants) FindByUserID(ctx context.Context, userID uuid.UUID) (*PermissionGrant, error) {
	record := &PermissionGrant{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}
