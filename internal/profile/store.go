// Package profile keeps the console's role records keyed by identity UID.
package profile

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"diamondhost/admin-console/internal/model"
)

// Store reads and writes console profiles. Get reports found=false, not an
// error, for identities that have no profile.
type Store interface {
	Get(ctx context.Context, uid string) (model.Profile, bool, error)
	Set(ctx context.Context, profile model.Profile) error
	ListByRoles(ctx context.Context, roles ...model.Role) ([]model.Profile, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var profileColumns = []string{"uid", "email", "role", "first_name", "last_name", "created_at"}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, uid string) (model.Profile, bool, error) {
	query, args, err := psql.Select(profileColumns...).
		From("admin_profiles").
		Where(sq.Eq{"uid": uid}).
		ToSql()
	if err != nil {
		return model.Profile{}, false, err
	}
	profile, err := scanProfile(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, false, nil
	}
	if err != nil {
		return model.Profile{}, false, err
	}
	return profile, true, nil
}

// Set upserts the profile. CreatedAt is kept from the first write.
func (s *PostgresStore) Set(ctx context.Context, profile model.Profile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	query, args, err := psql.Insert("admin_profiles").
		Columns(profileColumns...).
		Values(profile.UID, profile.Email, string(profile.Role), profile.FirstName, profile.LastName, profile.CreatedAt).
		Suffix(`ON CONFLICT (uid) DO UPDATE SET
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = now()`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, query, args...)
	return err
}

func (s *PostgresStore) ListByRoles(ctx context.Context, roles ...model.Role) ([]model.Profile, error) {
	builder := psql.Select(profileColumns...).
		From("admin_profiles").
		OrderBy("created_at DESC", "uid")
	if len(roles) > 0 {
		values := make([]string, 0, len(roles))
		for _, role := range roles {
			values = append(values, string(role))
		}
		builder = builder.Where(sq.Eq{"role": values})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		profile model.Profile
		role    string
	)
	err := row.Scan(&profile.UID, &profile.Email, &role, &profile.FirstName, &profile.LastName, &profile.CreatedAt)
	profile.Role = model.Role(role)
	return profile, err
}
