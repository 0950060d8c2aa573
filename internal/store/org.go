// ABOUTME: Store methods for organizations, users, and the principal-to-org slot binding.
// ABOUTME: A user holds exactly one role slot per organization.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
)

// Org is an organization row.
type Org struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// User is a user row.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// CreateOrg inserts a new organization row. Returns the created org.
func (s *Store) CreateOrg(ctx context.Context, name string) (*Org, error) {
	query, args, err := s.psql.
		Insert("organizations").
		Columns("name").
		Values(name).
		Suffix("RETURNING id, name, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("create org: build query: %w", err)
	}
	var o Org
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
		return nil, fmt.Errorf("create org: %w", err)
	}
	return &o, nil
}

// CreateUser inserts a new user. Returns ErrConflict if the email is taken.
func (s *Store) CreateUser(ctx context.Context, email, displayName string) (*User, error) {
	query, args, err := s.psql.
		Insert("users").
		Columns("email", "display_name").
		Values(email, displayName).
		Suffix("RETURNING id, email, display_name, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("create user: build query: %w", err)
	}
	var u User
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("create user: %w", mapConstraintErr(err))
	}
	return &u, nil
}

// AddOrgMember binds userID to slot in orgID, replacing any previous slot.
// Returns ErrNotFound if the org or user does not exist.
func (s *Store) AddOrgMember(ctx context.Context, orgID, userID uuid.UUID, slot permission.Slot) error {
	if _, err := permission.ParseSlot(int(slot)); err != nil {
		return err
	}
	query, args, err := s.psql.
		Insert("org_members").
		Columns("org_id", "user_id", "role_slot").
		Values(orgID, userID, int(slot)).
		Suffix("ON CONFLICT (org_id, user_id) DO UPDATE SET role_slot = EXCLUDED.role_slot").
		ToSql()
	if err != nil {
		return fmt.Errorf("add org member: build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add org member: %w", mapConstraintErr(err))
	}
	return nil
}

// GetMemberSlot returns the slot userID holds in orgID, or (nil, nil) if the
// user is not a member.
func (s *Store) GetMemberSlot(ctx context.Context, orgID, userID uuid.UUID) (*permission.Slot, error) {
	query, args, err := s.psql.
		Select("role_slot").
		From("org_members").
		Where(sq.Eq{"org_id": orgID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("get member slot: build query: %w", err)
	}
	var n int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member slot: %w", err)
	}
	slot, err := permission.ParseSlot(n)
	if err != nil {
		return nil, fmt.Errorf("get member slot: %w", err)
	}
	return &slot, nil
}
