// Package services contains the server-side business logic of the portal.
// This file implements PortalService, which orchestrates the registration,
// profile-linkage, login/reconciliation, edit, and delete flows over the
// identity and profile repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ar1701/demo-tedx/internal/common"
	"github.com/ar1701/demo-tedx/internal/dbx"
	"github.com/ar1701/demo-tedx/internal/server/auth"
	"github.com/ar1701/demo-tedx/internal/server/config"
	"github.com/ar1701/demo-tedx/internal/server/models"
	"github.com/ar1701/demo-tedx/internal/server/repositories/repomanager"
)

// Account bundles an identity with its linked profile for rendering.
type Account struct {
	Identity *models.Identity
	Profile  *models.Profile
}

// PortalService provides the registration/authentication/profile-linkage
// operations:
//   - Register: create an identity (the caller is logged in right after)
//   - SubmitProfile: link the one-time profile form to a fresh identity
//   - Login: verify credentials and reconcile identities without a profile
//   - View / Edit / Delete: the guarded profile operations
type PortalService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	bcryptCost int
}

// NewPortalService constructs a PortalService using repositories and
// server config.
func NewPortalService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *PortalService {
	return &PortalService{
		db:         db,
		repos:      m,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new identity with a hashed credential. Username and
// email collisions surface as common.ErrDuplicateIdentity, in which case
// nothing is persisted. The identity row is durable before this returns,
// so the caller may safely point the session at it.
func (s *PortalService) Register(ctx context.Context, name, username, email, password string) (*models.Identity, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	identity := &models.Identity{
		Name:         name,
		UserName:     username,
		Email:        email,
		PasswordHash: hash,
	}

	repo := s.repos.Identities(s.db)
	identity, err = repo.Create(ctx, identity)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating identity: %w", err)
	}

	return identity, nil
}

// SubmitProfile links the one-time profile form to ownerID. Any storage
// failure is returned to the caller; it must never be masked as success.
func (s *PortalService) SubmitProfile(ctx context.Context, ownerID string, profile *models.Profile) (*models.Profile, error) {
	if ownerID == "" {
		return nil, common.ErrorNotFound
	}
	profile.Owner = ownerID

	repo := s.repos.Profiles(s.db)
	profile, err := repo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating profile: %w", err)
	}

	return profile, nil
}

// Login authenticates username/password and resolves the linked profile.
//
// An identity that authenticates but has no profile is an abandoned
// registration: the identity is deleted outright and common.ErrorNotFound
// is returned so the caller can send the user back to registration.
// Bad credentials return common.ErrAuthFailed without touching any record.
func (s *PortalService) Login(ctx context.Context, username, password string) (*Account, error) {
	identityRepo := s.repos.Identities(s.db)

	identity, err := identityRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAuthFailed
		}
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(identity.PasswordHash, password) {
		return nil, common.ErrAuthFailed
	}

	// Authentication is confirmed; only now look for the profile.
	profile, err := s.repos.Profiles(s.db).GetByOwner(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if delErr := identityRepo.Delete(ctx, identity.ID); delErr != nil {
				return nil, fmt.Errorf("error deleting orphaned identity: %w", delErr)
			}
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading profile: %w", err)
	}

	return &Account{Identity: identity, Profile: profile}, nil
}

// View loads the identity and profile for the confirmed pointer.
func (s *PortalService) View(ctx context.Context, identityID string) (*Account, error) {
	identity, err := s.repos.Identities(s.db).GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	profile, err := s.repos.Profiles(s.db).GetByOwner(ctx, identityID)
	if err != nil {
		return nil, err
	}

	return &Account{Identity: identity, Profile: profile}, nil
}

// Edit updates the identity (name, email) and its profile as one
// transaction. Both records are confirmed to exist before either update
// runs, and an email collision rolls everything back with
// common.ErrDuplicateIdentity.
func (s *PortalService) Edit(ctx context.Context, identityID string, name, email string, fields *models.Profile) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		identityRepo := s.repos.Identities(tx)
		profileRepo := s.repos.Profiles(tx)

		if _, err := identityRepo.GetByID(ctx, identityID); err != nil {
			return err
		}
		profile, err := profileRepo.GetByOwner(ctx, identityID)
		if err != nil {
			return err
		}

		// The identity update carries the unique email constraint, so it
		// goes first; a collision aborts before the profile is touched.
		if err := identityRepo.Update(ctx, identityID, name, email); err != nil {
			return err
		}
		if err := profileRepo.Update(ctx, profile.ID, fields); err != nil {
			return err
		}
		return nil
	})
}

// Delete removes the profile and then the identity in one transaction.
// Callers must clear the session afterwards; its confirmed pointer now
// names a dead record.
func (s *PortalService) Delete(ctx context.Context, identityID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		identityRepo := s.repos.Identities(tx)
		profileRepo := s.repos.Profiles(tx)

		profile, err := profileRepo.GetByOwner(ctx, identityID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if profile != nil {
			if err := profileRepo.Delete(ctx, profile.ID); err != nil {
				return err
			}
		}
		return identityRepo.Delete(ctx, identityID)
	})
}
