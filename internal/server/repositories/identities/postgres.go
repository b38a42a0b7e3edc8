// Package identities provides a PostgreSQL-backed repository for account
// records. Uniqueness of username and email is enforced by the database
// constraints, never by a find-then-create check here.
package identities

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

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}

// Create inserts a new identity. A username or email collision yields
// common.ErrDuplicateIdentity with no row written.
func (r *PostgresRepository) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {

	query :=
		`INSERT INTO identities (name, username, email, password_hash)
         VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		identity.Name, identity.UserName, identity.Email, identity.PasswordHash).Scan(&identity.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

// GetByUsername returns the identity with the given username,
// or common.ErrorNotFound.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Identity, error) {
	query :=
		`SELECT id, name, username, email, password_hash FROM identities
		 WHERE username = $1
		 `

	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&identity.ID, &identity.Name, &identity.UserName, &identity.Email, &identity.PasswordHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

// GetByID returns the identity with the given id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	query :=
		`SELECT id, name, username, email, password_hash FROM identities
		 WHERE id = $1
		 `

	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&identity.ID, &identity.Name, &identity.UserName, &identity.Email, &identity.PasswordHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

// Update rewrites the mutable identity fields (name, email). An email
// collision yields common.ErrDuplicateIdentity; a missing row yields
// common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, id string, name string, email string) error {
	query :=
		`UPDATE identities SET name = $2, email = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateIdentity
		}
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

// Delete removes an identity by id. Linked profile rows go with it via
// the owner foreign key cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM identities
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
