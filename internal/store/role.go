// ABOUTME: Store methods for per-org role slots and capability overrides.
// ABOUTME: Rows are created lazily and idempotently on their natural composite keys.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
)

const orgRoleColumns = "id, org_id, slot, label, is_active, created_at, updated_at"

// RoleUpdate carries the optional fields of an OrgRole update. Nil fields are
// left unchanged. An empty Label clears the organization's label.
type RoleUpdate struct {
	Label  *string
	Active *bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrgRole(row rowScanner) (*permission.OrgRole, error) {
	var (
		r     permission.OrgRole
		slot  int
		label sql.NullString
	)
	if err := row.Scan(&r.ID, &r.OrgID, &slot, &label, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Slot = permission.Slot(slot)
	r.Label = label.String
	return &r, nil
}

// EnsureOrgRole returns the OrgRole for (orgID, slot), creating an inactive
// one if it does not exist. Concurrent callers receive the same row.
func (s *Store) EnsureOrgRole(ctx context.Context, orgID uuid.UUID, slot permission.Slot) (*permission.OrgRole, error) {
	return s.ensureOrgRole(ctx, s.db, orgID, slot)
}

func (s *Store) ensureOrgRole(ctx context.Context, q queryer, orgID uuid.UUID, slot permission.Slot) (*permission.OrgRole, error) {
	if _, err := permission.ParseSlot(int(slot)); err != nil {
		return nil, err
	}
	// DO UPDATE rather than DO NOTHING so RETURNING yields the existing row.
	query, args, err := s.psql.
		Insert("org_roles").
		Columns("org_id", "slot").
		Values(orgID, int(slot)).
		Suffix("ON CONFLICT (org_id, slot) DO UPDATE SET slot = EXCLUDED.slot RETURNING " + orgRoleColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ensure org role: build query: %w", err)
	}
	role, err := scanOrgRole(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("ensure org role: %w", mapConstraintErr(err))
	}
	return role, nil
}

// UpdateOrgRole applies upd to the OrgRole for (orgID, slot), creating the
// row first if needed, and returns the updated row.
func (s *Store) UpdateOrgRole(ctx context.Context, orgID uuid.UUID, slot permission.Slot, upd RoleUpdate) (*permission.OrgRole, error) {
	var out *permission.OrgRole
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		role, err := s.ensureOrgRole(ctx, tx, orgID, slot)
		if err != nil {
			return err
		}
		if upd.Label == nil && upd.Active == nil {
			out = role
			return nil
		}
		ub := s.psql.Update("org_roles").
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"id": role.ID}).
			Suffix("RETURNING " + orgRoleColumns)
		if upd.Label != nil {
			ub = ub.Set("label", nullString(*upd.Label))
		}
		if upd.Active != nil {
			ub = ub.Set("is_active", *upd.Active)
		}
		query, args, err := ub.ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		out, err = scanOrgRole(tx.QueryRowContext(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update org role: %w", err)
	}
	return out, nil
}

// SetOverride records an explicit allow or deny of capability for
// (orgID, slot). Creates the OrgRole if needed; upserts on (role, capability).
func (s *Store) SetOverride(ctx context.Context, orgID uuid.UUID, slot permission.Slot, capability permission.Capability, allowed bool) (*permission.Override, error) {
	if _, err := permission.ParseCapability(string(capability)); err != nil {
		return nil, err
	}
	var out *permission.Override
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		role, err := s.ensureOrgRole(ctx, tx, orgID, slot)
		if err != nil {
			return err
		}
		query, args, err := s.psql.
			Insert("org_role_overrides").
			Columns("org_role_id", "capability", "allowed").
			Values(role.ID, string(capability), allowed).
			Suffix("ON CONFLICT (org_role_id, capability) DO UPDATE SET allowed = EXCLUDED.allowed, updated_at = now()").
			ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		out = &permission.Override{OrgRoleID: role.ID, Capability: capability, Allowed: allowed}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set override: %w", err)
	}
	return out, nil
}

// ClearOverride deletes the override for (orgID, slot, capability) so the
// capability defers to the template again. Reports whether a row was removed.
func (s *Store) ClearOverride(ctx context.Context, orgID uuid.UUID, slot permission.Slot, capability permission.Capability) (bool, error) {
	query, args, err := s.psql.
		Delete("org_role_overrides").
		Where("org_role_id = (SELECT id FROM org_roles WHERE org_id = ? AND slot = ?)", orgID, int(slot)).
		Where(sq.Eq{"capability": string(capability)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("clear override: build query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("clear override: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clear override: rows affected: %w", err)
	}
	return n > 0, nil
}

// LoadPermissionRows loads the OrgRole for (orgID, slot) and its override for
// capability in one query. Missing rows come back as nil fields.
func (s *Store) LoadPermissionRows(ctx context.Context, orgID uuid.UUID, slot permission.Slot, capability permission.Capability) (permission.Rows, error) {
	query, args, err := s.psql.
		Select(
			"r.id", "r.org_id", "r.slot", "r.label", "r.is_active", "r.created_at", "r.updated_at",
			"o.allowed",
		).
		From("org_roles r").
		LeftJoin("org_role_overrides o ON o.org_role_id = r.id AND o.capability = ?", string(capability)).
		Where(sq.Eq{"r.org_id": orgID, "r.slot": int(slot)}).
		ToSql()
	if err != nil {
		return permission.Rows{}, fmt.Errorf("load permission rows: build query: %w", err)
	}

	var (
		r       permission.OrgRole
		n       int
		label   sql.NullString
		allowed sql.NullBool
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &r.OrgID, &n, &label, &r.Active, &r.CreatedAt, &r.UpdatedAt, &allowed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return permission.Rows{}, nil
	}
	if err != nil {
		return permission.Rows{}, fmt.Errorf("load permission rows: %w", err)
	}
	r.Slot = permission.Slot(n)
	r.Label = label.String

	rows := permission.Rows{Role: &r}
	if allowed.Valid {
		rows.Override = &permission.Override{OrgRoleID: r.ID, Capability: capability, Allowed: allowed.Bool}
	}
	return rows, nil
}

// ListOrgRoles returns the OrgRole rows an organization has configured,
// ordered by slot. Slots never configured are absent.
func (s *Store) ListOrgRoles(ctx context.Context, orgID uuid.UUID) ([]permission.OrgRole, error) {
	query, args, err := s.psql.
		Select(orgRoleColumns).
		From("org_roles").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("slot").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list org roles: build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list org roles: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var result []permission.OrgRole
	for rows.Next() {
		r, err := scanOrgRole(rows)
		if err != nil {
			return nil, fmt.Errorf("list org roles: scan: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// ListOverrides returns every override row of an organization's roles,
// ordered by role then capability.
func (s *Store) ListOverrides(ctx context.Context, orgID uuid.UUID) ([]permission.Override, error) {
	query, args, err := s.psql.
		Select("o.org_role_id", "o.capability", "o.allowed").
		From("org_role_overrides o").
		Join("org_roles r ON r.id = o.org_role_id").
		Where(sq.Eq{"r.org_id": orgID}).
		OrderBy("r.slot", "o.capability").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list overrides: build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var result []permission.Override
	for rows.Next() {
		var (
			ov         permission.Override
			capability string
		)
		if err := rows.Scan(&ov.OrgRoleID, &capability, &ov.Allowed); err != nil {
			return nil, fmt.Errorf("list overrides: scan: %w", err)
		}
		ov.Capability = permission.Capability(capability)
		result = append(result, ov)
	}
	return result, rows.Err()
}
