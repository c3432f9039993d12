package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/shared/utils"
)

const uniqueViolation = "23505"

const doctorColumns = `id, name, email, specialty, gender, status, contact_person,
	has_social_media, social_media_link, current_brand, price_range, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func scanDoctor(row pgx.Row) (*model.Doctor, error) {
	d := &model.Doctor{}
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Specialty,
		&d.Gender,
		&d.Status,
		&d.ContactPerson,
		&d.HasSocialMedia,
		&d.SocialMediaLink,
		&d.CurrentBrand,
		&d.PriceRange,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// insertDoctor writes d and fills in the store assigned id and timestamps.
func insertDoctor(ctx context.Context, q querier, d *model.Doctor) error {
	d.ApplyDefaults()

	query := `
		INSERT INTO doctors (
			name, email, specialty, gender, status, contact_person,
			has_social_media, social_media_link, current_brand, price_range
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		d.Name,
		d.Email,
		d.Specialty,
		d.Gender,
		d.Status,
		d.ContactPerson,
		d.HasSocialMedia,
		d.SocialMediaLink,
		d.CurrentBrand,
		d.PriceRange,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return mapWriteError("insert doctor", err)
	}
	return nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, model.ErrDuplicateDoctor)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *postgresRepository) List(ctx context.Context, filter DoctorFilter) ([]model.Doctor, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := arg(utils.ContainsPattern(filter.Search))
		conditions = append(conditions, utils.AnyILike(p, "name", "email", "contact_person"))
	}
	if filter.Specialty != "" {
		conditions = append(conditions, "specialty = "+arg(filter.Specialty))
	}
	if filter.Gender != "" {
		conditions = append(conditions, "gender = "+arg(filter.Gender))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(filter.Status))
	}

	query := "SELECT " + doctorColumns + " FROM doctors"
	if len(conditions) > 0 {
		query += " WHERE " + utils.JoinWithAnd(conditions)
	}
	query += " ORDER BY created_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	doctors := make([]model.Doctor, 0)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		doctors = append(doctors, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return doctors, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+doctorColumns+" FROM doctors WHERE id = $1", id)
	d, err := scanDoctor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) Create(ctx context.Context, d *model.Doctor) error {
	return insertDoctor(ctx, r.pool, d)
}

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, d *model.Doctor) error {
	return insertDoctor(ctx, tx, d)
}

func (r *postgresRepository) Update(ctx context.Context, d *model.Doctor) error {
	d.ApplyDefaults()

	query := `
		UPDATE doctors SET
			name = $2, email = $3, specialty = $4, gender = $5, status = $6,
			contact_person = $7, has_social_media = $8, social_media_link = $9,
			current_brand = $10, price_range = $11, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		d.ID,
		d.Name,
		d.Email,
		d.Specialty,
		d.Gender,
		d.Status,
		d.ContactPerson,
		d.HasSocialMedia,
		d.SocialMediaLink,
		d.CurrentBrand,
		d.PriceRange,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrDoctorNotFound
	}
	if err != nil {
		return mapWriteError("update doctor", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM doctors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDoctorNotFound
	}
	return nil
}

func (r *postgresRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT status, COUNT(*) FROM doctors GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return counts, nil
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM doctors").Scan(&n); err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) FindDuplicate(ctx context.Context, name, email string) (*model.Doctor, error) {
	query := "SELECT " + doctorColumns + ` FROM doctors
		WHERE name = $1 OR ($2 <> '' AND lower(email) = lower($2))
		ORDER BY created_at
		LIMIT 1`

	d, err := scanDoctor(r.pool.QueryRow(ctx, query, name, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &txUnit{tx: tx}, nil
}

// txUnit adapts a pgx transaction to UnitOfWork.
type txUnit struct {
	tx pgx.Tx
}

func (u *txUnit) Insert(ctx context.Context, d *model.Doctor) error {
	return insertDoctor(ctx, u.tx, d)
}

func (u *txUnit) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return mapWriteError("commit", err)
	}
	return nil
}

func (u *txUnit) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
