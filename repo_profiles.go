package access

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// The confirmation transitions are conditional single-row updates so applying
// one twice finds the state already advanced and matches zero rows.
var MarkEmailConfirmedSQL = `UPDATE "profiles" AS "prf"
SET
	"email_confirmed" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"prf"."id" = ?
AND "prf"."email_confirmed" = FALSE
RETURNING *;`

var MarkConfirmationCompleteSQL = `UPDATE "profiles" AS "prf"
SET
	"email_confirmed_at" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"prf"."id" = ?
AND "prf"."email_confirmed" = TRUE
AND "prf"."email_confirmed_at" IS NULL
RETURNING *;`

// ProfileStore is the narrow read/update surface the confirmation machine and
// the access-control resolver depend on.
type ProfileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	MarkEmailConfirmed(ctx context.Context, id uuid.UUID) (*Profile, error)
	MarkConfirmationComplete(ctx context.Context, id uuid.UUID, at time.Time) (*Profile, error)
}

type Profiles interface {
	repository.Repository[*Profile]
	ProfileStore

	MarkEmailConfirmedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Profile, error)
	MarkConfirmationCompleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (a *profiles) FindByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	record := &Profile{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	record.EnsureRole()
	return record, nil
}

func (a *profiles) MarkEmailConfirmed(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return a.MarkEmailConfirmedTx(ctx, a.db, id)
}

func (a *profiles) MarkEmailConfirmedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Profile, error) {
	res, err := a.Repository.RawTx(ctx, tx, MarkEmailConfirmedSQL, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		// already confirmed, or missing; either way nothing was written
		return a.FindByID(ctx, id)
	}

	return res[0], nil
}

func (a *profiles) MarkConfirmationComplete(ctx context.Context, id uuid.UUID, at time.Time) (*Profile, error) {
	return a.MarkConfirmationCompleteTx(ctx, a.db, id, at)
}

func (a *profiles) MarkConfirmationCompleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*Profile, error) {
	res, err := a.Repository.RawTx(ctx, tx, MarkConfirmationCompleteSQL, at, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return a.FindByID(ctx, id)
	}

	return res[0], nil
}
