package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
)

// UnitOfWork is one explicit transaction. Rollback after Commit is a no-op,
// so callers can always defer it.
type UnitOfWork interface {
	Insert(ctx context.Context, d *model.Doctor) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ImportStore is the slice of the store the importer needs.
type ImportStore interface {
	// FindDuplicate returns a record sharing name, or sharing a non-empty
	// email (case-insensitive). It returns nil, nil when there is none.
	FindDuplicate(ctx context.Context, name, email string) (*model.Doctor, error)
	Begin(ctx context.Context) (UnitOfWork, error)
}

// DoctorFilter narrows List. Empty fields are ignored.
type DoctorFilter struct {
	Search    string
	Specialty string
	Gender    string
	Status    string
}

type RepositoryInterface interface {
	ImportStore

	List(ctx context.Context, filter DoctorFilter) ([]model.Doctor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	Create(ctx context.Context, d *model.Doctor) error
	CreateWithTx(ctx context.Context, tx pgx.Tx, d *model.Doctor) error
	Update(ctx context.Context, d *model.Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	Count(ctx context.Context) (int, error)
}
