// Package profiles provides a PostgreSQL-backed repository for the
// one-per-account registration details. The owner column is unique, so the
// database rejects a second profile for the same identity.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ar1701/demo-tedx/internal/common"
	"github.com/ar1701/demo-tedx/internal/dbx"
	"github.com/ar1701/demo-tedx/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}

// Create inserts a profile for profile.Owner. If that identity already has
// a profile, the owner unique constraint fires and ErrDuplicateIdentity is
// returned.
func (r *PostgresRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {

	query :=
		`INSERT INTO profiles (owner, sid, dob, gender, year, branch, college, address, contact)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		profile.Owner, profile.SID, profile.DOB, profile.Gender, profile.Year,
		profile.Branch, profile.College, profile.Address, profile.Contact).Scan(&profile.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

// GetByOwner returns the profile linked to ownerID, or common.ErrorNotFound.
func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Profile, error) {
	query :=
		`SELECT id, owner, sid, dob, gender, year, branch, college, address, contact FROM profiles
		 WHERE owner = $1
		 `

	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, ownerID).
		Scan(&profile.ID, &profile.Owner, &profile.SID, &profile.DOB, &profile.Gender,
			&profile.Year, &profile.Branch, &profile.College, &profile.Address, &profile.Contact)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

// Update rewrites all mutable profile fields on the row with the given id.
// A missing row yields common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, id string, profile *models.Profile) error {
	query :=
		`UPDATE profiles
		 SET sid = $2, dob = $3, gender = $4, year = $5, branch = $6, college = $7, address = $8, contact = $9
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id,
		profile.SID, profile.DOB, profile.Gender, profile.Year,
		profile.Branch, profile.College, profile.Address, profile.Contact)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// Delete removes a profile by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM profiles
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
